package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one row of an HBarChart. Done is the share of Value already paid or
// completed and is drawn in the accent color.
type Bar struct {
	Label string
	Value float64
	Done  float64
	Text  string // right-hand annotation, e.g. a formatted amount
}

// HBarChart renders one horizontal bar per row, scaled to the largest value.
func HBarChart(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, textW := 0, 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		textW = max(textW, lipgloss.Width(b.Text))
		peak = max(peak, b.Value)
	}
	if peak == 0 {
		peak = 1
	}

	barW := width - labelW - textW - 4
	if barW < 5 {
		barW = 5
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	doneStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	todoStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, bar := range bars {
		total := int(bar.Value / peak * float64(barW))
		done := int(bar.Done / peak * float64(barW))
		if done > total {
			done = total
		}
		if total == 0 && bar.Value > 0 {
			total = 1
		}

		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, bar.Label)))
		b.WriteString(spaceStyle.Render("  "))
		b.WriteString(doneStyle.Render(strings.Repeat("█", done)))
		b.WriteString(todoStyle.Render(strings.Repeat("▒", total-done)))
		b.WriteString(spaceStyle.Render(strings.Repeat(" ", barW-total+2)))
		b.WriteString(textStyle.Render(fmt.Sprintf("%*s", textW, bar.Text)))
		if i < len(bars)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
