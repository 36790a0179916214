package components

import (
	"fmt"

	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a bar for a 0-100 percentage, colored by threshold,
// followed by the percentage.
func ProgressBar(pct int, width int) string {
	t := theme.Active

	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if width < 4 {
		width = 4
	}

	color := t.ForPct(pct)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(float64(pct)/100) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3d%%", pct))
}

// LabeledProgress renders "label  [bar] pct  done/total" on one line.
func LabeledProgress(label string, done, total, labelW, barW int) string {
	t := theme.Active

	pct := 0
	if total > 0 {
		pct = done * 100 / total
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		ProgressBar(pct, barW) +
		spaceStyle.Render("  ") +
		countStyle.Render(fmt.Sprintf("%d/%d", done, total))
}
