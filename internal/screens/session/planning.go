package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sanlang/internal/router"
	"github.com/abhisek/sanlang/internal/screen"
	sess "github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/ui/components"
	"github.com/abhisek/sanlang/internal/ui/layout"
	"github.com/abhisek/sanlang/internal/ui/theme"
)

// PlanningScreen lets the learner pick a duration and previews the plan
// before the session starts.
type PlanningScreen struct {
	study  Study
	state  *sess.Session
	now    func() time.Time
	menu   components.Menu
	inputs *sess.Inputs
	errMsg string
}

var _ screen.Screen = (*PlanningScreen)(nil)
var _ screen.KeyHintProvider = (*PlanningScreen)(nil)

// NewPlanning creates a planning screen. state must be in the planning
// status.
func NewPlanning(study Study, state *sess.Session, now func() time.Time) *PlanningScreen {
	p := &PlanningScreen{study: study, state: state, now: now}

	items := make([]components.MenuItem, 0, len(sess.Durations))
	for _, d := range sess.Durations {
		items = append(items, components.MenuItem{
			Label:  fmt.Sprintf("%d minutes", int(d.Minutes())),
			Action: func() tea.Cmd { return p.start(d) },
		})
	}
	p.menu = components.NewMenu(items)
	for i, d := range sess.Durations {
		if d == state.SelectedDuration() {
			p.menu.Selected = i
		}
	}
	return p
}

func (p *PlanningScreen) Init() tea.Cmd {
	study := p.study
	return func() tea.Msg {
		in, err := study.PlanInputs(context.Background())
		return planReadyMsg{Inputs: in, Err: err}
	}
}

func (p *PlanningScreen) Title() string {
	return "Plan Session"
}

func (p *PlanningScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Duration"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (p *PlanningScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case planReadyMsg:
		if msg.Err != nil {
			p.errMsg = msg.Err.Error()
			return p, nil
		}
		p.inputs = &msg.Inputs
		return p, nil
	case tea.KeyMsg:
		if p.inputs == nil {
			return p, nil
		}
		var cmd tea.Cmd
		p.menu, cmd = p.menu.Update(msg)
		p.state.SetDuration(sess.Durations[p.menu.Selected])
		return p, cmd
	}
	return p, nil
}

// start builds the plan for d and hands over to the session screen.
func (p *PlanningScreen) start(d time.Duration) tea.Cmd {
	if p.inputs == nil {
		return nil
	}
	p.state.SetDuration(d)
	plan := sess.BuildPlan(p.state.SelectedDuration(), *p.inputs)
	if !p.state.StartSession(plan) {
		p.errMsg = "nothing to plan"
		return nil
	}
	next := New(p.study, p.state, p.now)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (p *PlanningScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if p.errMsg != "" {
		return center.Foreground(theme.Error).Render("\n\n  Error: " + p.errMsg)
	}
	if p.inputs == nil {
		return center.Foreground(theme.TextDim).Render("\n\n  Looking at what's due...")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("How long do you have?"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, p.menu.View()))
	b.WriteString("\n")

	plan := sess.BuildPlan(sess.Durations[p.menu.Selected], *p.inputs)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, renderPlan(plan)))
	return b.String()
}

func renderPlan(plan *sess.Plan) string {
	var b strings.Builder
	for i, a := range plan.Activities {
		line := fmt.Sprintf("%d. %-8s %2d min  %s", i+1, a.Kind, a.Minutes, a.Title)
		b.WriteString(theme.Body.Render(line))
		b.WriteString("\n")
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}
