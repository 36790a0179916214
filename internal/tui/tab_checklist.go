package tui

import (
	"strings"

	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/roadmap"
	"github.com/theirongolddev/agencyplan/internal/tui/components"
)

// checklistItems returns checklist items grouped by section.
func (a App) checklistItems() []roadmap.ChecklistItem {
	items := make([]roadmap.ChecklistItem, 0, len(a.plan.Checklist))
	for _, sec := range a.plan.Sections() {
		for _, c := range a.plan.Checklist {
			if c.Section == sec {
				items = append(items, c)
			}
		}
	}
	return items
}

func (a App) renderChecklistTab(cw, h int) string {
	inner := components.CardInnerWidth(cw)
	cursor := a.cursor[tabChecklist]

	var lines []string
	focus, idx := 0, 0
	section := ""
	for _, c := range a.checklistItems() {
		if idx == 0 || c.Section != section {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			section = c.Section
			lines = append(lines, groupHeading(section))
		}
		if idx == cursor {
			focus = len(lines)
		}
		lines = append(lines, listRow(
			a.tracker.IsComplete(progress.ChecklistItem, c.ID),
			idx == cursor,
			c.Title,
			"",
			inner,
		))
		idx++
	}

	summary := components.LabeledProgress("Tasks", a.completedIn(progress.ChecklistItem), len(a.plan.Checklist), 10, min(inner-30, 40))

	listH := h - 5
	body := summary + "\n\n" + strings.Join(scrollWindow(lines, focus, listH), "\n")
	return components.ContentCard("Checklist", body, cw)
}
