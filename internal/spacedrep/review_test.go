package spacedrep

import (
	"testing"
	"time"
)

var day0 = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func TestIsDue(t *testing.T) {
	tests := []struct {
		name string
		next time.Time
		want bool
	}{
		{"before date", day0.Add(24 * time.Hour), false},
		{"on date", day0, true},
		{"after date", day0.Add(-48 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &ReviewState{NextReviewDate: tt.next}
			if got := rs.IsDue(day0); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverdueDays(t *testing.T) {
	rs := &ReviewState{NextReviewDate: day0.Add(48 * time.Hour)}
	if got := rs.OverdueDays(day0); got != 0 {
		t.Errorf("OverdueDays() = %f, want 0", got)
	}

	rs = &ReviewState{NextReviewDate: day0}
	got := rs.OverdueDays(day0.Add(3 * 24 * time.Hour))
	if got < 2.99 || got > 3.01 {
		t.Errorf("OverdueDays() = %f, want ~3.0", got)
	}
}

func TestIsLapsed(t *testing.T) {
	tests := []struct {
		name      string
		stage     int
		graduated bool
		overdue   time.Duration
		want      bool
	}{
		// Grace is half the current interval.
		{"stage 2 within grace", 2, false, 2 * 24 * time.Hour, false},
		{"stage 2 past grace", 2, false, 4 * 24 * time.Hour, true},
		{"stage 0 one day late", 0, false, 24 * time.Hour, true},
		{"graduated within grace", 6, true, 30 * 24 * time.Hour, false},
		{"graduated past grace", 6, true, 50 * 24 * time.Hour, true},
		{"not yet due", 3, false, -time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &ReviewState{Stage: tt.stage, Graduated: tt.graduated, NextReviewDate: day0}
			if got := rs.IsLapsed(day0.Add(tt.overdue)); got != tt.want {
				t.Errorf("IsLapsed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		rs   ReviewState
		now  time.Time
		want ReviewStatus
	}{
		{"not due", ReviewState{Stage: 2, NextReviewDate: day0.Add(5 * 24 * time.Hour)}, day0, StatusScheduled},
		{"due", ReviewState{Stage: 2, NextReviewDate: day0}, day0.Add(24 * time.Hour), StatusDue},
		{"overdue", ReviewState{Stage: 2, NextReviewDate: day0}, day0.Add(5 * 24 * time.Hour), StatusOverdue},
		{"graduated resting", ReviewState{Stage: 6, Graduated: true, NextReviewDate: day0.Add(30 * 24 * time.Hour)}, day0, StatusGraduated},
		{"graduated due", ReviewState{Stage: 6, Graduated: true, NextReviewDate: day0}, day0.Add(10 * 24 * time.Hour), StatusDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rs.Status(tt.now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDueInDays(t *testing.T) {
	tests := []struct {
		name string
		next time.Time
		want int
	}{
		{"four and a half days out", day0.Add(108 * time.Hour), 5},
		{"exactly two days out", day0.Add(48 * time.Hour), 2},
		{"due now", day0, 0},
		{"overdue", day0.Add(-96 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &ReviewState{NextReviewDate: tt.next}
			if got := rs.DueInDays(day0); got != tt.want {
				t.Errorf("DueInDays() = %d, want %d", got, tt.want)
			}
		})
	}
}
