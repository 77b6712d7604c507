package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sanlang/internal/router"
	"github.com/abhisek/sanlang/internal/screen"
	"github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/ui/layout"
	"github.com/abhisek/sanlang/internal/ui/theme"
)

// SummaryScreen displays the session summary.
type SummaryScreen struct {
	summary *session.Summary
	warn    string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen. warn, if set, is shown under the stats.
func New(summary *session.Summary, warn string) *SummaryScreen {
	return &SummaryScreen{summary: summary, warn: warn}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}
	line := func(fg lipgloss.Style, text string) string {
		return fg.Width(width).Align(lipgloss.Center).Render(text) + "\n"
	}
	text := lipgloss.NewStyle().Foreground(theme.Text)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString(line(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), "Session complete!"))
	b.WriteString("\n")

	b.WriteString(line(dim, fmt.Sprintf("Time: %s of %d min planned",
		clock(sum.Elapsed.Seconds()), int(sum.Planned.Minutes()))))
	b.WriteString(line(dim, fmt.Sprintf("Activities: %d of %d",
		sum.ActivitiesCompleted, sum.ActivitiesPlanned)))
	b.WriteString("\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", max(min(width-8, 60), 0)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")

	r := sum.Results
	b.WriteString(line(text, fmt.Sprintf("Cards reviewed: %d        New words: %d",
		r.CardsReviewed, r.WordsAdded)))
	b.WriteString(line(text, fmt.Sprintf("Sentences written: %d        Stories read: %d",
		r.SentencesWritten, len(r.ContentConsumed))))
	b.WriteString("\n")

	if sum.Streak.Extended {
		b.WriteString(line(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
			fmt.Sprintf("★ Streak extended to %d day(s)!", sum.Streak.Current)))
	} else {
		b.WriteString(line(dim, fmt.Sprintf("★ Streak: %d day(s)", sum.Streak.Current)))
	}

	if s.warn != "" {
		b.WriteString("\n")
		b.WriteString(line(lipgloss.NewStyle().Foreground(theme.Error), s.warn))
	}
	return b.String()
}

func clock(secs float64) string {
	n := int(secs)
	return fmt.Sprintf("%d:%02d", n/60, n%60)
}
