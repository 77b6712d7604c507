package session

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	sess "github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, s.errMsg)
	}
	if s.finishing {
		return centered(width, theme.TextDim).Render("\n\n\n  Saving your progress...")
	}
	if s.confirmQuit {
		return renderQuitConfirm(width)
	}

	a, ok := s.state.CurrentActivity()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(s.renderInfoLine(a, width))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	switch {
	case s.loading:
		b.WriteString(centered(width, theme.TextDim).Render("Loading..."))
	case a.Kind == sess.ActivityReview:
		b.WriteString(s.renderReview(width))
	case a.Kind == sess.ActivityInput:
		b.WriteString(s.renderInput(a, width))
	case a.Kind == sess.ActivityOutput:
		b.WriteString(s.renderOutput(a, width))
	}

	if s.activityDone {
		b.WriteString("\n\n")
		next := "Press Enter for the next activity"
		if s.timeUp || s.state.IsLastActivity() {
			next = "Press Enter to finish"
		}
		b.WriteString(centered(width, theme.TextDim).Render(next))
	}
	if s.warn != "" {
		b.WriteString("\n\n")
		b.WriteString(centered(width, theme.Error).Render(s.warn))
	}
	return b.String()
}

// renderInfoLine shows the activity, its position in the plan and the
// time left.
func (s *SessionScreen) renderInfoLine(a sess.Activity, width int) string {
	plan := s.state.Plan()
	remaining := max(plan.Duration-s.elapsed, 0)
	timer := fmt.Sprintf("%d:%02d", int(remaining.Minutes()), int(remaining.Seconds())%60)
	if s.timeUp {
		timer = "time's up"
	}

	left := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  %s", a.Title))
	right := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d/%d  %s",
			s.state.CurrentActivityIndex()+1, len(plan.Activities), timer))

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}
	return line
}

func (s *SessionScreen) renderReview(width int) string {
	if s.card >= len(s.cards) {
		if len(s.cards) == 0 {
			return centered(width, theme.TextDim).Render("Nothing to review right now.")
		}
		return centered(width, theme.Success).Render(fmt.Sprintf("Reviewed %d card(s).", len(s.cards)))
	}

	item := s.cards[s.card]
	var b strings.Builder
	b.WriteString(centered(width, theme.TextDim).Render(fmt.Sprintf("Card %d of %d", s.card+1, len(s.cards))))
	b.WriteString("\n\n")
	b.WriteString(theme.Term.Width(width).Align(lipgloss.Center).Render(item.Word))
	b.WriteString("\n\n")

	if !s.revealed {
		b.WriteString(centered(width, theme.TextDim).Render("Space to reveal"))
		return b.String()
	}
	if item.Reading != "" && item.Reading != item.Word {
		b.WriteString(theme.Reading.Width(width).Align(lipgloss.Center).Render(item.Reading))
		b.WriteString("\n")
	}
	b.WriteString(centered(width, theme.Text).Render(strings.Join(item.Definitions, "; ")))
	b.WriteString("\n\n")
	b.WriteString(centered(width, theme.TextDim).Render("Did you know it? (y/n)"))
	return b.String()
}

func (s *SessionScreen) renderInput(a sess.Activity, width int) string {
	if s.consumed {
		return centered(width, theme.Success).Render("Marked as read.")
	}
	if s.question >= len(s.questions) {
		msg := "Read it, then press Enter to mark it as read."
		if len(s.questions) > 0 {
			msg = "All questions answered. Press Enter to mark it as read."
		}
		return centered(width, theme.Text).Render(msg)
	}

	var b strings.Builder
	b.WriteString(centered(width, theme.TextDim).Render(
		fmt.Sprintf("Question %d of %d", s.question+1, len(s.questions))))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.mc.View()))
	if s.mc.Submitted {
		b.WriteString("\n")
		if s.mc.IsCorrect() {
			b.WriteString(centered(width, theme.Success).Bold(true).Render("Correct!"))
		} else {
			b.WriteString(centered(width, theme.Error).Bold(true).Render("Not quite"))
		}
		b.WriteString("\n")
		b.WriteString(centered(width, theme.TextDim).Render("Press Enter to continue"))
	}
	return b.String()
}

func (s *SessionScreen) renderOutput(a sess.Activity, width int) string {
	var b strings.Builder
	b.WriteString(centered(width, theme.TextDim).Render(
		fmt.Sprintf("Sentences written: %d of %d", s.written, a.Sentences)))
	b.WriteString("\n\n")
	if s.activityDone {
		b.WriteString(centered(width, theme.Success).Render("Nice writing!"))
		return b.String()
	}
	b.WriteString(centered(width, theme.Text).Render("Use today's words in a sentence of your own."))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.input.View()))
	return b.String()
}

// renderQuitConfirm renders the quit confirmation dialog.
func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width, theme.Text).Bold(true).Render("End session early?"))
	b.WriteString("\n")
	b.WriteString(centered(width, theme.TextDim).Render("Your progress will be saved."))
	b.WriteString("\n\n")
	b.WriteString(centered(width, theme.Success).Render("[Y] Yes, end session"))
	b.WriteString("\n")
	b.WriteString(centered(width, theme.Primary).Render("[N] No, keep going"))
	return b.String()
}

// renderError renders an error message.
func renderError(width int, errMsg string) string {
	return centered(width, theme.Error).
		Render(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to go back.", errMsg))
}

func centered(width int, fg color.Color) lipgloss.Style {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(fg)
}
