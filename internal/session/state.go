// Package session implements the in-memory study session: a plan of
// review, input and output activities and the state machine that walks a
// learner through it.
package session

import "time"

// Status is the state of a study session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlanning Status = "planning"
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
)

// Results accumulate while a session is active.
type Results struct {
	CardsReviewed    int      `json:"cards_reviewed"`
	WordsAdded       int      `json:"words_added"`
	SentencesWritten int      `json:"sentences_written"`
	ContentConsumed  []string `json:"content_consumed"`
}

// StreakInfo is attached when the session completes.
type StreakInfo struct {
	Current  int  `json:"current"`
	Extended bool `json:"extended"`
}

// Session is a study session state machine. It is owned by a single
// goroutine and is not persisted.
//
//	idle -> planning -> active -> complete
//
// ExitSession returns to idle from any state. Transitions that are not
// valid from the current state leave it unchanged and report false.
type Session struct {
	status   Status
	duration time.Duration
	plan     *Plan
	index    int
	results  Results
	streak   StreakInfo

	startedAt time.Time
	endedAt   time.Time
	now       func() time.Time
}

// New returns an idle session.
func New() *Session {
	return NewWithClock(time.Now)
}

// NewWithClock returns an idle session using now for timing.
func NewWithClock(now func() time.Time) *Session {
	return &Session{status: StatusIdle, now: now}
}

func (s *Session) Status() Status                  { return s.status }
func (s *Session) SelectedDuration() time.Duration { return s.duration }
func (s *Session) Plan() *Plan                     { return s.plan }
func (s *Session) CurrentActivityIndex() int       { return s.index }
func (s *Session) Streak() StreakInfo              { return s.streak }

// Results returns a copy of the accumulated results.
func (s *Session) Results() Results {
	r := s.results
	r.ContentConsumed = append([]string(nil), s.results.ContentConsumed...)
	return r
}

// CurrentActivity returns the activity in progress, if any.
func (s *Session) CurrentActivity() (Activity, bool) {
	if s.status != StatusActive {
		return Activity{}, false
	}
	return s.plan.Activities[s.index], true
}

// IsLastActivity reports whether the current activity is the plan's last.
func (s *Session) IsLastActivity() bool {
	return s.status == StatusActive && s.index == len(s.plan.Activities)-1
}

// StartPlanning moves idle to planning with the default duration.
func (s *Session) StartPlanning() bool {
	if s.status != StatusIdle {
		return false
	}
	s.status = StatusPlanning
	s.duration = DefaultSessionDuration
	return true
}

// SetDuration changes the selected duration while planning.
func (s *Session) SetDuration(d time.Duration) bool {
	if s.status != StatusPlanning || d <= 0 {
		return false
	}
	s.duration = d
	return true
}

// StartSession begins plan with zeroed results. The plan must have at
// least one activity.
func (s *Session) StartSession(plan *Plan) bool {
	if s.status != StatusPlanning || plan == nil || len(plan.Activities) == 0 {
		return false
	}
	s.status = StatusActive
	s.plan = plan
	s.index = 0
	s.results = Results{ContentConsumed: []string{}}
	s.startedAt = s.now()
	return true
}

// AdvanceToNextActivity moves to the next activity. At the last activity
// it does nothing; call CompleteSession instead.
func (s *Session) AdvanceToNextActivity() bool {
	if s.status != StatusActive || s.index >= len(s.plan.Activities)-1 {
		return false
	}
	s.index++
	return true
}

// CompleteSession ends an active session.
func (s *Session) CompleteSession(streak StreakInfo) bool {
	if s.status != StatusActive {
		return false
	}
	s.status = StatusComplete
	s.streak = streak
	s.endedAt = s.now()
	return true
}

// ExitSession discards everything and returns to idle.
func (s *Session) ExitSession() {
	*s = Session{status: StatusIdle, now: s.now}
}

func (s *Session) RecordCardsReviewed(n int) bool {
	if s.status != StatusActive || n <= 0 {
		return false
	}
	s.results.CardsReviewed += n
	return true
}

func (s *Session) RecordWordsAdded(n int) bool {
	if s.status != StatusActive || n <= 0 {
		return false
	}
	s.results.WordsAdded += n
	return true
}

func (s *Session) RecordSentencesWritten(n int) bool {
	if s.status != StatusActive || n <= 0 {
		return false
	}
	s.results.SentencesWritten += n
	return true
}

// RecordContentConsumed notes a content item once.
func (s *Session) RecordContentConsumed(id string) bool {
	if s.status != StatusActive || id == "" {
		return false
	}
	for _, c := range s.results.ContentConsumed {
		if c == id {
			return false
		}
	}
	s.results.ContentConsumed = append(s.results.ContentConsumed, id)
	return true
}
