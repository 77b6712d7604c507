package spacedrep

import (
	"testing"
	"time"
)

func TestNewReviewStateIsDueImmediately(t *testing.T) {
	rs := NewReviewState(day0)
	if !rs.IsDue(day0) {
		t.Error("new card should be due when added")
	}
	if rs.LastReviewDate != nil {
		t.Error("new card should have no last review")
	}
}

func TestRecordCorrectWalksTheSchedule(t *testing.T) {
	rs := NewReviewState(day0)
	now := day0
	for i, want := range BaseIntervals {
		rs.Record(true, now)
		gotDays := int(rs.NextReviewDate.Sub(now).Hours() / 24)
		if gotDays != want {
			t.Fatalf("review %d: interval = %d days, want %d", i+1, gotDays, want)
		}
		now = rs.NextReviewDate
	}
	if !rs.Graduated {
		t.Fatal("card should graduate after six consecutive hits")
	}

	rs.Record(true, now)
	if got := int(rs.NextReviewDate.Sub(now).Hours() / 24); got != GraduatedIntervalDays {
		t.Errorf("graduated interval = %d, want %d", got, GraduatedIntervalDays)
	}
}

func TestRecordMissResetsCard(t *testing.T) {
	rs := &ReviewState{Stage: 4, ConsecutiveHits: 7, Graduated: true, NextReviewDate: day0}
	rs.Record(false, day0)

	if rs.Stage != 0 || rs.ConsecutiveHits != 0 || rs.Graduated {
		t.Errorf("after miss: %+v", rs)
	}
	if !rs.NextReviewDate.Equal(day0.AddDate(0, 0, 1)) {
		t.Errorf("NextReviewDate = %v, want one day later", rs.NextReviewDate)
	}
	if rs.LastReviewDate == nil || !rs.LastReviewDate.Equal(day0) {
		t.Errorf("LastReviewDate = %v", rs.LastReviewDate)
	}
}

func TestSortByOverdue(t *testing.T) {
	type card struct {
		id string
		rs *ReviewState
	}
	cards := []card{
		{"b", &ReviewState{NextReviewDate: day0.Add(-24 * time.Hour)}},
		{"c", &ReviewState{NextReviewDate: day0.Add(-72 * time.Hour)}},
		{"a", &ReviewState{NextReviewDate: day0.Add(-24 * time.Hour)}},
	}
	SortByOverdue(cards, func(c card) *ReviewState { return c.rs }, func(c card) string { return c.id }, day0)

	got := cards[0].id + cards[1].id + cards[2].id
	if got != "cab" {
		t.Errorf("order = %q, want %q", got, "cab")
	}
}
