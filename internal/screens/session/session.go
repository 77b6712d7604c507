package session

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sanlang/internal/router"
	"github.com/abhisek/sanlang/internal/screen"
	"github.com/abhisek/sanlang/internal/screens/summary"
	sess "github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/ui/components"
	"github.com/abhisek/sanlang/internal/ui/layout"
)

// sentenceCharLimit bounds a written sentence.
const sentenceCharLimit = 200

// SessionScreen implements screen.Screen for the active session. It walks
// the plan's activities in order.
type SessionScreen struct {
	study Study
	state *sess.Session
	now   func() time.Time

	startedAt time.Time
	elapsed   time.Duration
	timeUp    bool

	loading      bool
	activityDone bool

	// review
	cards          []store.VocabularyItem
	card           int
	revealed       bool
	correctReviews int

	// input
	questions []store.Question
	question  int
	mc        components.MultiChoice
	consumed  bool

	// output
	input   components.TextInput
	written int

	confirmQuit bool
	finishing   bool
	warn        string
	errMsg      string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.EscHandler = (*SessionScreen)(nil)

// New creates a session screen for state, which must be active.
func New(study Study, state *sess.Session, now func() time.Time) *SessionScreen {
	if now == nil {
		now = time.Now
	}
	return &SessionScreen{
		study: study,
		state: state,
		now:   now,
		input: components.NewTextInput("Write a sentence...", sentenceCharLimit),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	s.startedAt = s.now()
	return tea.Batch(s.beginActivity(), tickCmd())
}

func (s *SessionScreen) Title() string {
	return "Session"
}

func (s *SessionScreen) HandlesEsc() bool {
	return true
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	}
	if s.activityDone {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Continue"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	hints := []layout.KeyHint{}
	a, _ := s.state.CurrentActivity()
	switch a.Kind {
	case sess.ActivityReview:
		if s.revealed {
			hints = append(hints, layout.KeyHint{Key: "Y/N", Description: "Knew it?"})
		} else {
			hints = append(hints, layout.KeyHint{Key: "Space", Description: "Reveal"})
		}
	case sess.ActivityInput:
		hints = append(hints, layout.KeyHint{Key: "A-D", Description: "Answer"})
	case sess.ActivityOutput:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Submit"})
	}
	return append(hints,
		layout.KeyHint{Key: "Tab", Description: "Skip"},
		layout.KeyHint{Key: "Esc", Description: "Quit"},
	)
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		return s.handleTimerTick(msg)

	case reviewLoadedMsg:
		if msg.Index != s.state.CurrentActivityIndex() {
			return s, nil
		}
		s.loading = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.state.RecordWordsAdded(msg.Added)
		s.cards = msg.Cards
		s.activityDone = len(s.cards) == 0
		return s, nil

	case questionsLoadedMsg:
		if msg.Index != s.state.CurrentActivityIndex() {
			return s, nil
		}
		s.loading = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.questions = msg.Questions
		if len(s.questions) > 0 {
			s.mc = newChoice(s.questions[0])
		}
		return s, nil

	case savedMsg:
		if msg.Err != nil {
			s.warn = msg.Err.Error()
		}
		return s, nil

	case finishedMsg:
		return s.handleFinished(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	// Forward to input for cursor blink.
	if a, ok := s.state.CurrentActivity(); ok && a.Kind == sess.ActivityOutput {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SessionScreen) handleTimerTick(msg timerTickMsg) (screen.Screen, tea.Cmd) {
	if s.finishing || s.state.Status() != sess.StatusActive {
		return s, nil
	}
	s.elapsed = s.now().Sub(s.startedAt)
	if plan := s.state.Plan(); plan != nil && s.elapsed >= plan.Duration {
		s.timeUp = true
	}
	return s, tickCmd()
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	// Error state: any key goes back.
	if s.errMsg != "" {
		s.state.ExitSession()
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.finishing {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, s.finish()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "tab":
		return s, s.nextActivity()
	}

	if s.loading {
		return s, nil
	}
	if s.activityDone {
		if key == "enter" {
			return s, s.nextActivity()
		}
		return s, nil
	}

	a, ok := s.state.CurrentActivity()
	if !ok {
		return s, nil
	}
	switch a.Kind {
	case sess.ActivityReview:
		return s, s.handleReviewKey(key)
	case sess.ActivityInput:
		return s, s.handleInputKey(msg, a)
	case sess.ActivityOutput:
		return s, s.handleOutputKey(msg, a)
	}
	return s, nil
}

func (s *SessionScreen) handleReviewKey(key string) tea.Cmd {
	if !s.revealed {
		if key == "space" || key == " " || key == "enter" {
			s.revealed = true
		}
		return nil
	}
	switch key {
	case "y", "Y":
		return s.grade(true)
	case "n", "N":
		return s.grade(false)
	}
	return nil
}

// grade records the current card's result and moves to the next card.
func (s *SessionScreen) grade(correct bool) tea.Cmd {
	item := s.cards[s.card]
	s.state.RecordCardsReviewed(1)
	if correct {
		s.correctReviews++
	}
	s.card++
	s.revealed = false
	s.activityDone = s.card >= len(s.cards)

	study := s.study
	return func() tea.Msg {
		return savedMsg{Err: study.Review(context.Background(), item.ID, correct)}
	}
}

func (s *SessionScreen) handleInputKey(msg tea.KeyMsg, a sess.Activity) tea.Cmd {
	if s.question < len(s.questions) {
		if !s.mc.Submitted {
			s.mc, _ = s.mc.Update(msg)
			if !s.mc.Submitted {
				return nil
			}
			correct := s.mc.IsCorrect()
			study := s.study
			return func() tea.Msg {
				return savedMsg{Err: study.AnswerQuestion(context.Background(), correct)}
			}
		}
		if msg.String() != "enter" {
			return nil
		}
		s.question++
		if s.question < len(s.questions) {
			s.mc = newChoice(s.questions[s.question])
			return nil
		}
	} else if msg.String() != "enter" {
		return nil
	}
	return s.consume(a)
}

// consume marks the activity's content as read.
func (s *SessionScreen) consume(a sess.Activity) tea.Cmd {
	s.consumed = true
	s.activityDone = true
	s.state.RecordContentConsumed(a.ContentID)

	study := s.study
	return func() tea.Msg {
		return savedMsg{Err: study.MarkConsumed(context.Background(), a.ContentType, a.ContentID)}
	}
}

func (s *SessionScreen) handleOutputKey(msg tea.KeyMsg, a sess.Activity) tea.Cmd {
	if msg.String() != "enter" {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	}
	if s.input.Value() == "" {
		return nil
	}
	s.written++
	s.state.RecordSentencesWritten(1)
	s.input.Reset()
	s.activityDone = s.written >= a.Sentences
	return nil
}

// nextActivity moves on, finishing the session after the last activity or
// once time is up.
func (s *SessionScreen) nextActivity() tea.Cmd {
	if s.timeUp || s.state.IsLastActivity() {
		return s.finish()
	}
	if !s.state.AdvanceToNextActivity() {
		return s.finish()
	}
	return s.beginActivity()
}

// beginActivity resets per-activity state and loads what the current
// activity needs.
func (s *SessionScreen) beginActivity() tea.Cmd {
	s.activityDone = false
	s.cards, s.card, s.revealed = nil, 0, false
	s.questions, s.question, s.consumed = nil, 0, false
	s.written = 0

	a, ok := s.state.CurrentActivity()
	if !ok {
		return nil
	}
	idx := s.state.CurrentActivityIndex()
	study := s.study

	switch a.Kind {
	case sess.ActivityReview:
		s.loading = true
		return func() tea.Msg {
			ctx := context.Background()
			added := 0
			if a.NewWords > 0 {
				n, err := study.DripNewWords(ctx)
				if err != nil {
					return reviewLoadedMsg{Index: idx, Err: err}
				}
				added = n
			}
			limit := a.Cards + added
			if limit == 0 {
				return reviewLoadedMsg{Index: idx}
			}
			cards, err := study.DueCards(ctx, limit)
			return reviewLoadedMsg{Index: idx, Added: added, Cards: cards, Err: err}
		}
	case sess.ActivityInput:
		s.loading = true
		return func() tea.Msg {
			qs, err := study.Questions(context.Background(), a.ContentType, a.ContentID)
			return questionsLoadedMsg{Index: idx, Questions: qs, Err: err}
		}
	case sess.ActivityOutput:
		s.loading = false
		s.input.Reset()
		return s.input.Init()
	}
	return nil
}

// finish credits the session's work. The session completes when the
// result arrives.
func (s *SessionScreen) finish() tea.Cmd {
	if s.finishing {
		return nil
	}
	s.finishing = true
	results := s.state.Results()
	correct := s.correctReviews
	study := s.study
	return func() tea.Msg {
		streak, err := study.Finish(context.Background(), results, correct)
		return finishedMsg{Streak: streak, Err: err}
	}
}

func (s *SessionScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.warn = msg.Err.Error()
	}
	s.state.CompleteSession(msg.Streak)
	sum := sess.BuildSummary(s.state)
	next := summary.New(sum, s.warn)
	return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func newChoice(q store.Question) components.MultiChoice {
	return components.NewMultiChoice(q.Question, q.Options, q.AnswerIndex)
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}
