// Package mastery tracks where each vocabulary word sits between first
// sight and long-term retention.
package mastery

// MasteryState is a word's position in the lifecycle
// new → learning → tested → mastered. A missed review sends any state
// back to learning.
type MasteryState string

const (
	StateNew      MasteryState = "new"
	StateLearning MasteryState = "learning"
	StateTested   MasteryState = "tested"
	StateMastered MasteryState = "mastered"
)

// KnownStates are the states whose words count as known when grading
// stories and summarizing coverage.
var KnownStates = []MasteryState{StateTested, StateMastered}

func (s MasteryState) Valid() bool {
	switch s {
	case StateNew, StateLearning, StateTested, StateMastered:
		return true
	}
	return false
}

// Known reports whether words in s count as known.
func (s MasteryState) Known() bool {
	return s == StateTested || s == StateMastered
}

// StateTransition is a state change caused by one review.
type StateTransition struct {
	ItemID  string       `json:"item_id"`
	Word    string       `json:"word"`
	From    MasteryState `json:"from"`
	To      MasteryState `json:"to"`
	Trigger string       `json:"trigger"` // first-review, stage-advance, graduated, lapse
}
