package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/sanlang/internal/decks"
	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/progress"
	"github.com/abhisek/sanlang/internal/recommend"
	"github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
	"github.com/abhisek/sanlang/internal/vocab"
)

// recommendedForPlan is how many recommendations the planner sees.
const recommendedForPlan = 3

// Skill points credited when a session finishes.
const (
	pointsPerCard     = 0.2
	pointsPerSentence = 0.5
	pointsPerContent  = 1.0
	pointsPerAnswer   = 0.5
)

// StudyDeps are the services a study session uses.
type StudyDeps struct {
	Store     *store.Store
	Catalog   *stories.Catalog
	Vocab     *vocab.Service
	Decks     *decks.Service
	Learners  *learner.Service
	Progress  *progress.Service
	Recommend *recommend.Service
}

// Study runs one learner's study sessions against the store.
type Study struct {
	user string
	lang string
	deps StudyDeps
	now  func() time.Time

	mu          sync.Mutex
	startStreak int
}

// NewStudy creates a study backend for userID learning language.
func NewStudy(userID, language string, deps StudyDeps) *Study {
	return &Study{user: userID, lang: language, deps: deps, now: time.Now}
}

// SetClock replaces the clock.
func (s *Study) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Study) UserID() string   { return s.user }
func (s *Study) Language() string { return s.lang }

// Overview summarizes the learner's progress.
func (s *Study) Overview(ctx context.Context) (*progress.Summary, error) {
	return s.deps.Progress.ForUser(ctx, s.user, s.lang, s.now())
}

// PlanInputs gathers what the session planner needs: due cards, words the
// drip can still add today and recommended stories. It also notes the
// streak the session starts from.
func (s *Study) PlanInputs(ctx context.Context) (session.Inputs, error) {
	now := s.now()
	ov, err := s.Overview(ctx)
	if err != nil {
		return session.Inputs{}, err
	}
	s.mu.Lock()
	s.startStreak = ov.Streak
	s.mu.Unlock()

	due, err := s.deps.Vocab.DueCount(ctx, s.user, s.lang, now)
	if err != nil {
		return session.Inputs{}, err
	}
	fresh, err := s.deps.Decks.NewWordsToday(ctx, s.user, now)
	if err != nil {
		return session.Inputs{}, err
	}
	rec, err := s.deps.Recommend.Stories(ctx, s.user, s.lang, recommendedForPlan, now)
	if err != nil {
		return session.Inputs{}, err
	}

	in := session.Inputs{DueCards: due, NewWordsAvailable: fresh}
	for _, st := range rec.Items {
		in.Recommended = append(in.Recommended, session.Content{
			ID:    st.ID,
			Title: st.Title,
			Type:  recommend.ContentStory,
		})
	}
	return in, nil
}

// DripNewWords adds today's words from the active deck and returns how
// many were added.
func (s *Study) DripNewWords(ctx context.Context) (int, error) {
	res, err := s.deps.Decks.Drip(ctx, s.user, s.now())
	if err != nil || res == nil {
		return 0, err
	}
	return len(res.Added), nil
}

// DueCards returns up to limit cards due for review, oldest first.
func (s *Study) DueCards(ctx context.Context, limit int) ([]store.VocabularyItem, error) {
	return s.deps.Vocab.Due(ctx, s.user, s.lang, s.now(), limit)
}

// Review grades a card.
func (s *Study) Review(ctx context.Context, itemID string, correct bool) error {
	_, err := s.deps.Vocab.Review(ctx, s.user, itemID, correct, s.now())
	return err
}

// Questions returns the comprehension questions of a content item.
func (s *Study) Questions(ctx context.Context, contentType, contentID string) ([]store.Question, error) {
	switch contentType {
	case recommend.ContentVideo:
		v, err := s.deps.Catalog.Video(ctx, contentID)
		if err != nil {
			return nil, err
		}
		return v.Questions, nil
	default:
		st, err := s.deps.Catalog.Get(ctx, contentID)
		if err != nil {
			return nil, err
		}
		return st.Questions, nil
	}
}

// AnswerQuestion records a comprehension answer against the learner's
// ability.
func (s *Study) AnswerQuestion(ctx context.Context, correct bool) error {
	a := learner.Activity{Correct: correct, Difficulty: s.difficulty(ctx)}
	if correct {
		a.Skills.Reading = pointsPerAnswer
	}
	_, err := s.deps.Learners.RecordActivity(ctx, s.user, s.lang, a, s.now())
	return err
}

// MarkConsumed records a completed view of a content item.
func (s *Study) MarkConsumed(ctx context.Context, contentType, contentID string) error {
	return s.deps.Store.Views().Record(ctx, store.ContentView{
		UserID:      s.user,
		ContentType: contentType,
		ContentID:   contentID,
		Completed:   true,
		ViewedAt:    s.now(),
	})
}

// Finish credits the session's work to the learner's skills and reports
// the streak. correctReviews counts the reviews graded correct. The streak
// is extended when it grew since PlanInputs.
func (s *Study) Finish(ctx context.Context, r session.Results, correctReviews int) (session.StreakInfo, error) {
	s.mu.Lock()
	start := s.startStreak
	s.mu.Unlock()

	before, err := s.Overview(ctx)
	if err != nil {
		return session.StreakInfo{}, err
	}
	if r.CardsReviewed == 0 && r.SentencesWritten == 0 && len(r.ContentConsumed) == 0 {
		return session.StreakInfo{Current: before.Streak, Extended: before.Streak > start}, nil
	}

	a := learner.Activity{
		Skills: store.Skills{
			Vocabulary: float64(correctReviews) * pointsPerCard,
			Writing:    float64(r.SentencesWritten) * pointsPerSentence,
			Reading:    float64(len(r.ContentConsumed)) * pointsPerContent,
		},
		Difficulty: before.AbilityEstimate,
		Correct:    r.CardsReviewed == 0 || correctReviews*2 >= r.CardsReviewed,
	}
	if _, err := s.deps.Learners.RecordActivity(ctx, s.user, s.lang, a, s.now()); err != nil {
		return session.StreakInfo{}, fmt.Errorf("finish session: %w", err)
	}

	after, err := s.Overview(ctx)
	if err != nil {
		return session.StreakInfo{}, err
	}
	return session.StreakInfo{Current: after.Streak, Extended: after.Streak > start}, nil
}

// difficulty pitches comprehension questions at the learner's current
// estimate.
func (s *Study) difficulty(ctx context.Context) float64 {
	p, err := s.deps.Learners.Get(ctx, s.user, s.lang)
	if err != nil {
		return learner.InitialAbility
	}
	return p.AbilityEstimate
}
