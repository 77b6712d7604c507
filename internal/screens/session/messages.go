package session

import (
	"time"

	sess "github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/store"
)

// planReadyMsg is sent when the plan inputs have been gathered.
type planReadyMsg struct {
	Inputs sess.Inputs
	Err    error
}

// reviewLoadedMsg carries the cards for a review activity. Index is the
// activity the load was started for.
type reviewLoadedMsg struct {
	Index int
	Added int
	Cards []store.VocabularyItem
	Err   error
}

// questionsLoadedMsg carries the comprehension questions for an input
// activity.
type questionsLoadedMsg struct {
	Index     int
	Questions []store.Question
	Err       error
}

// savedMsg reports the outcome of a background write.
type savedMsg struct {
	Err error
}

// finishedMsg is sent once the session's work has been credited.
type finishedMsg struct {
	Streak sess.StreakInfo
	Err    error
}

// timerTickMsg is sent every second to update the countdown.
type timerTickMsg time.Time
