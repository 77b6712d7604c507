package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sanlang/internal/ui/theme"
)

// Minimum terminal size. Flashcards with furigana and four answer
// options need the full 80 columns.
const (
	MinWidth  = 80
	MinHeight = 24
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Stats are the learner figures shown on the right of the header. An
// empty Level hides the level badge.
type Stats struct {
	Level  string
	Due    int
	Streak int
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// renderStats renders "N4 · ▤ 12 due · ★ 3 days".
func renderStats(s Stats) string {
	accent := lipgloss.NewStyle().Foreground(theme.Accent)
	sep := lipgloss.NewStyle().Foreground(theme.TextDim).Render(" · ")

	parts := make([]string, 0, 3)
	if s.Level != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(s.Level))
	}
	parts = append(parts, accent.Render(fmt.Sprintf("▤ %d due", s.Due)))
	days := "days"
	if s.Streak == 1 {
		days = "day"
	}
	parts = append(parts, accent.Render(fmt.Sprintf("★ %d %s", s.Streak, days)))
	return strings.Join(parts, sep)
}

// RenderHeader renders the header bar: app name, centered screen title
// and the learner's stats.
func RenderHeader(title string, stats Stats, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  Sanlang")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := renderStats(stats)

	inner := max(width-4, 0) // border and padding
	leftGap := max((inner-lipgloss.Width(center))/2-lipgloss.Width(left), 1)
	rightGap := max(inner-lipgloss.Width(left)-leftGap-lipgloss.Width(center)-lipgloss.Width(right), 1)

	return bar(width).Render(left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, key.Render(h.Key)+" "+desc.Render(h.Description))
	}
	return bar(width).Render("  " + strings.Join(parts, "   "))
}

// RenderFrame stacks header, content and footer, giving the content
// whatever height remains.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(contentHeight).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
