package tui

import (
	"strings"

	"github.com/theirongolddev/agencyplan/internal/cli"
	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/roadmap"
	"github.com/theirongolddev/agencyplan/internal/tui/components"
)

// timelineGoals returns goals in display order: grouped by phase, phases in
// first-seen order.
func (a App) timelineGoals() []roadmap.Goal {
	goals := make([]roadmap.Goal, 0, len(a.plan.Goals))
	for _, phase := range a.plan.Phases() {
		goals = append(goals, a.plan.GoalsInPhase(phase)...)
	}
	return goals
}

func (a App) renderTimelineTab(cw, h int) string {
	inner := components.CardInnerWidth(cw)
	start := a.tracker.StartDate()
	cursor := a.cursor[tabTimeline]

	var lines []string
	focus, idx := 0, 0
	for _, phase := range a.plan.Phases() {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, groupHeading(phase))
		for _, g := range a.plan.GoalsInPhase(phase) {
			if idx == cursor {
				focus = len(lines)
			}
			title := g.Title
			if g.Major {
				title += " ★"
			}
			lines = append(lines, listRow(
				a.tracker.IsComplete(progress.Goal, g.ID),
				idx == cursor,
				title,
				cli.FormatDate(g.DueDate(start)),
				inner,
			))
			idx++
		}
	}

	summary := components.LabeledProgress("Goals", a.completedIn(progress.Goal), len(a.plan.Goals), 10, min(inner-30, 40))

	// card border (2) + title (1) + summary (1) + gap (1)
	listH := h - 5
	body := summary + "\n\n" + strings.Join(scrollWindow(lines, focus, listH), "\n")
	return components.ContentCard("Timeline", body, cw)
}
