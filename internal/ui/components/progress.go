package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sanlang/internal/ui/theme"
)

// ProgressBar draws a labelled horizontal bar for a 0–100 score, the
// scale skill scores and level progress share.
type ProgressBar struct {
	Label   string
	Percent float64
	Width   int

	// Muted draws the bar in the dim color, for values that are not yet
	// trustworthy such as a calibrating level.
	Muted bool
}

// NewProgressBar creates a progress bar for percent in [0, 100]. Values
// outside are clamped when rendering.
func NewProgressBar(label string, percent float64, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, Width: width}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	const suffixWidth = 6 // "  100%"
	barWidth := max(p.Width-lipgloss.Width(b.String())-suffixWidth, 4)

	pct := min(max(p.Percent, 0), 100)
	filled := int(float64(barWidth) * pct / 100)

	fill := theme.Secondary
	if p.Muted {
		fill = theme.TextDim
	}
	b.WriteString(lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled)))
	b.WriteString(lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %d%%", int(pct))))
	return b.String()
}
