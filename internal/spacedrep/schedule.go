// Package spacedrep schedules vocabulary reviews on a fixed expanding
// interval ladder.
package spacedrep

// BaseIntervals is the ladder in days. Stage n waits BaseIntervals[n]
// after a correct review.
var BaseIntervals = []int{1, 3, 7, 14, 30, 60}

const (
	// GraduationStage is the run of consecutive correct reviews after
	// which a card graduates.
	GraduationStage = 6

	// GraduatedIntervalDays is the fixed gap for graduated cards.
	GraduatedIntervalDays = 90

	// TestedStage is the first stage at which a card counts as tested.
	TestedStage = 3
)
