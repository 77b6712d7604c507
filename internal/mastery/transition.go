package mastery

import "github.com/abhisek/sanlang/internal/spacedrep"

// Next returns the state a word moves to after a review, given the review
// state already updated by that review.
func Next(from MasteryState, rs *spacedrep.ReviewState, correct bool) MasteryState {
	switch {
	case !correct:
		return StateLearning
	case rs.Graduated:
		return StateMastered
	case rs.Stage >= spacedrep.TestedStage:
		return StateTested
	default:
		return StateLearning
	}
}

// Apply computes the transition for a review of item. It returns nil when
// the state does not change.
func Apply(itemID, word string, from MasteryState, rs *spacedrep.ReviewState, correct bool) *StateTransition {
	to := Next(from, rs, correct)
	if to == from {
		return nil
	}
	trigger := "stage-advance"
	switch {
	case from == StateNew:
		trigger = "first-review"
	case !correct:
		trigger = "lapse"
	case to == StateMastered:
		trigger = "graduated"
	}
	return &StateTransition{ItemID: itemID, Word: word, From: from, To: to, Trigger: trigger}
}
