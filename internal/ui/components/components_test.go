package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Off", Disabled: true},
		{Label: "One"},
		{Label: "Two", Disabled: true},
		{Label: "Three"},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("after down = %d, want 3", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if m.Selected != 1 {
		t.Errorf("after up = %d, want 1", m.Selected)
	}
}

func TestMenuEnterRunsAction(t *testing.T) {
	ran := false
	m := NewMenu([]MenuItem{{Label: "Go", Action: func() tea.Cmd { ran = true; return nil }}})
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !ran {
		t.Error("action did not run")
	}
}

func TestMultiChoiceLetterChooses(t *testing.T) {
	mc := NewMultiChoice("Where?", []string{"家", "駅", "学校"}, 1)
	mc, _ = mc.Update(key('b'))
	if !mc.Submitted || !mc.IsCorrect() {
		t.Fatalf("submitted=%v correct=%v", mc.Submitted, mc.IsCorrect())
	}
	mc, _ = mc.Update(key('a'))
	if mc.ChosenIndex != 1 {
		t.Errorf("choice changed after submit: %d", mc.ChosenIndex)
	}
}

func TestMultiChoiceIgnoresOutOfRangeLetter(t *testing.T) {
	mc := NewMultiChoice("Q", []string{"x", "y"}, 0)
	mc, _ = mc.Update(key('d'))
	if mc.Submitted {
		t.Error("out of range letter submitted")
	}
	if !strings.Contains(mc.View(), "B)  y") {
		t.Errorf("view missing labels:\n%s", mc.View())
	}
}

func TestProgressBarClamps(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{170, "100%"},
		{-5, " 0%"},
		{42.9, "42%"},
	}
	for _, tt := range tests {
		p := NewProgressBar("Reading", tt.percent, 40)
		if v := p.View(); !strings.Contains(v, tt.want) {
			t.Errorf("percent %v: view = %q, want %q", tt.percent, v, tt.want)
		}
	}
}
