package spacedrep

import (
	"sort"
	"time"
)

// NewReviewState returns the state of a card added at addedAt. New cards
// are due immediately.
func NewReviewState(addedAt time.Time) *ReviewState {
	return &ReviewState{NextReviewDate: addedAt}
}

// Record updates the schedule after a review. A correct answer pushes the
// next review out by the current interval and advances the stage; a miss
// drops the card back to stage 0, due again after the first interval.
func (rs *ReviewState) Record(correct bool, now time.Time) {
	reviewed := now
	rs.LastReviewDate = &reviewed

	if !correct {
		rs.ConsecutiveHits = 0
		rs.Stage = 0
		rs.Graduated = false
		rs.NextReviewDate = now.AddDate(0, 0, BaseIntervals[0])
		return
	}

	intervalDays := rs.CurrentIntervalDays()
	rs.ConsecutiveHits++
	if !rs.Graduated {
		if rs.Stage < len(BaseIntervals) {
			rs.Stage++
		}
		if rs.ConsecutiveHits >= GraduationStage {
			rs.Graduated = true
		}
	}
	rs.NextReviewDate = now.AddDate(0, 0, intervalDays)
}

// SortByOverdue orders items most overdue first, breaking ties with key.
func SortByOverdue[T any](items []T, state func(T) *ReviewState, key func(T) string, now time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		oi, oj := state(items[i]).OverdueDays(now), state(items[j]).OverdueDays(now)
		if oi != oj {
			return oi > oj
		}
		return key(items[i]) < key(items[j])
	})
}
