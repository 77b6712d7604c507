package summary

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sanlang/internal/session"
)

func testSummary() *session.Summary {
	return &session.Summary{
		Planned:             15 * time.Minute,
		Elapsed:             12*time.Minute + 5*time.Second,
		ActivitiesPlanned:   3,
		ActivitiesCompleted: 2,
		Results: session.Results{
			CardsReviewed:    18,
			WordsAdded:       4,
			SentencesWritten: 1,
			ContentConsumed:  []string{"story-1"},
		},
		Streak: session.StreakInfo{Current: 6, Extended: true},
	}
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testSummary(), "")
	if s.Title() != "Session Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Session Summary")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s := New(testSummary(), "")
	view := s.View(80, 24)
	for _, want := range []string{"12:05", "Cards reviewed: 18", "Activities: 2 of 3", "extended to 6"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_Warning(t *testing.T) {
	s := New(testSummary(), "database is locked")
	if !strings.Contains(s.View(80, 24), "database is locked") {
		t.Error("expected warning in view")
	}
}

func TestSummaryScreen_Navigation_Enter(t *testing.T) {
	s := New(testSummary(), "")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Error("expected a command on Enter (pop)")
	}
}

func TestSummaryScreen_Navigation_Esc(t *testing.T) {
	s := New(testSummary(), "")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Error("expected a command on Esc (pop)")
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	s := New(testSummary(), "")
	hints := s.KeyHints()
	if len(hints) != 2 {
		t.Errorf("KeyHints length = %d, want 2", len(hints))
	}
}
