package tui

import (
	"strings"

	"github.com/theirongolddev/agencyplan/internal/tui/components"
	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderResourcesTab(cw, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	cursor := a.cursor[tabResources]

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	urlStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Underline(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var lines []string
	focus := 0
	for i, r := range a.plan.Resources {
		if i > 0 {
			lines = append(lines, "")
		}
		if i == cursor {
			focus = len(lines)
			lines = append(lines, selStyle.Render("▸ "+truncStr(r.Name, inner-2)))
		} else {
			lines = append(lines, nameStyle.Render("  "+truncStr(r.Name, inner-2)))
		}
		lines = append(lines, "  "+urlStyle.Render(truncStr(r.URL, inner-2)))
		if r.Description != "" {
			lines = append(lines, "  "+descStyle.Render(truncStr(r.Description, inner-2)))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, descStyle.Render("No resources in this plan."))
	}

	// card border (2) + title (1)
	body := strings.Join(scrollWindow(lines, focus, h-3), "\n")
	return components.ContentCard("Resources", body, cw)
}
