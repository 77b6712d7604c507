package spacedrep

import (
	"math"
	"time"
)

// ReviewState is the schedule of one vocabulary card. It is derived from
// the stored item and never persisted on its own.
type ReviewState struct {
	Stage           int
	NextReviewDate  time.Time
	ConsecutiveHits int
	Graduated       bool
	LastReviewDate  *time.Time
}

// IsDue reports whether the card should be shown at now.
func (rs *ReviewState) IsDue(now time.Time) bool {
	return !now.Before(rs.NextReviewDate)
}

// OverdueDays is the fractional number of days since the card became due,
// or 0 when it is not due.
func (rs *ReviewState) OverdueDays(now time.Time) float64 {
	if !rs.IsDue(now) {
		return 0
	}
	return now.Sub(rs.NextReviewDate).Hours() / 24
}

// IsLapsed reports whether a due card has waited longer than half of its
// current interval. Such cards are shown as overdue.
func (rs *ReviewState) IsLapsed(now time.Time) bool {
	if !rs.IsDue(now) {
		return false
	}
	return rs.OverdueDays(now) > float64(rs.CurrentIntervalDays())/2
}

// CurrentIntervalDays is the gap applied by the next correct review.
func (rs *ReviewState) CurrentIntervalDays() int {
	switch {
	case rs.Graduated:
		return GraduatedIntervalDays
	case rs.Stage >= len(BaseIntervals):
		return BaseIntervals[len(BaseIntervals)-1]
	case rs.Stage < 0:
		return BaseIntervals[0]
	}
	return BaseIntervals[rs.Stage]
}

// DueInDays is the number of whole days, rounded up, until the card is
// due. It is 0 for due cards.
func (rs *ReviewState) DueInDays(now time.Time) int {
	if rs.IsDue(now) {
		return 0
	}
	return int(math.Ceil(rs.NextReviewDate.Sub(now).Hours() / 24))
}

// ReviewStatus labels a card for the vocabulary list.
type ReviewStatus string

const (
	StatusScheduled ReviewStatus = "scheduled"
	StatusDue       ReviewStatus = "due"
	StatusOverdue   ReviewStatus = "overdue"
	StatusGraduated ReviewStatus = "graduated"
)

// Status classifies the card at now. A graduated card that comes due is
// reported as due like any other.
func (rs *ReviewState) Status(now time.Time) ReviewStatus {
	switch {
	case rs.IsLapsed(now):
		return StatusOverdue
	case rs.IsDue(now):
		return StatusDue
	case rs.Graduated:
		return StatusGraduated
	}
	return StatusScheduled
}
