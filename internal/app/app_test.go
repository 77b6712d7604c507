package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sanlang/internal/router"
	"github.com/abhisek/sanlang/internal/screen"
	"github.com/abhisek/sanlang/internal/ui/layout"
)

type stubScreen struct {
	title      string
	handlesEsc bool
	got        []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd { return nil }
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.got = append(s.got, msg)
	return s, nil
}
func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }
func (s *stubScreen) HandlesEsc() bool     { return s.handlesEsc }

func TestEscPopsPlainScreens(t *testing.T) {
	m := AppModel{router: router.New(&stubScreen{title: "home"})}
	m.router.Push(&stubScreen{title: "child"})

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestEscForwardedToHandler(t *testing.T) {
	m := AppModel{router: router.New(&stubScreen{title: "home"})}
	child := &stubScreen{title: "session", handlesEsc: true}
	m.router.Push(child)

	m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if len(child.got) != 1 {
		t.Errorf("child received %d messages, want 1", len(child.got))
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2", m.router.Depth())
	}
}

func TestStatsUpdateHeader(t *testing.T) {
	m := AppModel{router: router.New(&stubScreen{title: "home"})}
	next, _ := m.Update(screen.StatsMsg{Level: "N4", Due: 5, Streak: 2})
	am := next.(AppModel)
	if am.stats != (layout.Stats{Level: "N4", Due: 5, Streak: 2}) {
		t.Errorf("stats = %+v", am.stats)
	}
}
