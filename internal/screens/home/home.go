package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sanlang/internal/progress"
	"github.com/abhisek/sanlang/internal/router"
	"github.com/abhisek/sanlang/internal/screen"
	sessionscreen "github.com/abhisek/sanlang/internal/screens/session"
	sess "github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/ui/components"
	"github.com/abhisek/sanlang/internal/ui/theme"
)

// Backend is what the home screen needs: the study session operations
// plus the learner overview.
type Backend interface {
	sessionscreen.Study
	UserID() string
	Language() string
	Overview(ctx context.Context) (*progress.Summary, error)
}

// overviewMsg carries a freshly loaded overview.
type overviewMsg struct {
	Summary *progress.Summary
	Err     error
}

// HomeScreen shows the learner's progress and starts sessions.
type HomeScreen struct {
	backend  Backend
	state    *sess.Session
	now      func() time.Time
	menu     components.Menu
	overview *progress.Summary
	errMsg   string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(backend Backend, now func() time.Time) *HomeScreen {
	if now == nil {
		now = time.Now
	}
	h := &HomeScreen{backend: backend, state: sess.NewWithClock(now), now: now}
	h.menu = components.NewMenu([]components.MenuItem{
		{Label: "START SESSION", Action: h.startSession},
		{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.load()
}

func (h *HomeScreen) load() tea.Cmd {
	backend := h.backend
	return func() tea.Msg {
		sum, err := backend.Overview(context.Background())
		return overviewMsg{Summary: sum, Err: err}
	}
}

// startSession discards any previous session and opens planning.
func (h *HomeScreen) startSession() tea.Cmd {
	h.state.ExitSession()
	h.state.StartPlanning()
	next := sessionscreen.NewPlanning(h.backend, h.state, h.now)
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewMsg:
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.overview = msg.Summary
		stats := screen.StatsMsg{Due: msg.Summary.DueCards, Streak: msg.Summary.Streak}
		if !msg.Summary.Calibrating {
			stats.Level = msg.Summary.Progress.CurrentLevel
		}
		return h, func() tea.Msg { return stats }
	case screen.RefreshMsg:
		return h, h.load()
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(width-4, 64)

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render("三 Sanlang"))
	sections = append(sections, theme.Subtitle.Width(cw).Render(
		fmt.Sprintf("%s · %s", h.backend.UserID(), h.backend.Language())))

	switch {
	case h.errMsg != "":
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Error).Render("Error: "+h.errMsg))
	case h.overview == nil:
		sections = append(sections, theme.Hint.Render("Loading your progress..."))
	default:
		sections = append(sections, renderOverview(h.overview, cw))
	}

	sections = append(sections, h.menu.View())

	content := strings.Join(sections, "\n\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

// renderOverview draws the level bar, skill bars and vocabulary counts.
func renderOverview(o *progress.Summary, width int) string {
	var b strings.Builder

	level := o.Progress.CurrentLevel
	if o.Progress.NextLevel != nil {
		level += " → " + *o.Progress.NextLevel
	}
	if o.Calibrating {
		level += "  (calibrating)"
	}
	bar := components.NewProgressBar(fmt.Sprintf("%-12s", level), o.Progress.ProgressPercent, width)
	bar.Muted = o.Calibrating
	b.WriteString(bar.View())
	b.WriteString("\n\n")

	skills := []struct {
		name  string
		value float64
	}{
		{"Vocabulary", o.Skills.Vocabulary},
		{"Grammar", o.Skills.Grammar},
		{"Reading", o.Skills.Reading},
		{"Listening", o.Skills.Listening},
		{"Writing", o.Skills.Writing},
		{"Speaking", o.Skills.Speaking},
	}
	for _, s := range skills {
		b.WriteString(components.NewProgressBar(fmt.Sprintf("%-12s", s.name), s.value, width).View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	stats := fmt.Sprintf("Known %d · Learning %d · Due %d · New today %d",
		o.Vocabulary.Known, o.Vocabulary.Learning, o.DueCards, o.WordsAddedToday)
	b.WriteString(theme.Body.Render(stats))
	return theme.Card.Render(b.String())
}
