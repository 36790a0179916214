package tui

import (
	"strings"

	"github.com/theirongolddev/agencyplan/internal/cli"
	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/tui/components"
	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func (a App) renderBudgetTab(cw, h int) string {
	t := theme.Active
	cur := a.plan.Currency
	sum := a.plan.BudgetSummary(a.tracker)
	pct := sum.RoundedPercent()

	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Total Budget", Value: cli.FormatMoney(sum.TotalCost, cur)},
		{Label: "Paid", Value: cli.FormatMoney(sum.CompletedCost, cur), Color: t.Green},
		{Label: "Remaining", Value: cli.FormatMoney(sum.RemainingCost, cur), Color: t.Orange},
		{Label: "Funded", Value: cli.FormatPercent(pct), Color: t.ForPct(pct)},
	}, cw)

	restH := h - lipgloss.Height(metrics)
	if a.isCompactLayout() {
		return metrics + "\n" + a.renderBudgetList(cw, restH)
	}

	widths := components.LayoutRow(cw, 5)
	listW := widths[0] + widths[1] + widths[2]
	chartW := widths[3] + widths[4]
	return metrics + "\n" + components.CardRow([]string{
		a.renderBudgetList(listW, restH),
		a.renderBudgetChart(chartW),
	})
}

func (a App) renderBudgetList(w, h int) string {
	inner := components.CardInnerWidth(w)
	cursor := a.cursor[tabBudget]

	lines := make([]string, 0, len(a.plan.Budget))
	for i, b := range a.plan.Budget {
		lines = append(lines, listRow(
			a.tracker.IsComplete(progress.BudgetItem, b.ID),
			i == cursor,
			b.Label,
			cli.FormatMoney(b.Cost(), a.plan.Currency),
			inner,
		))
	}

	summary := components.LabeledProgress("Paid", a.completedIn(progress.BudgetItem), len(a.plan.Budget), 6, min(inner-24, 30))

	listH := h - 5
	body := summary + "\n\n" + strings.Join(scrollWindow(lines, cursor, listH), "\n")
	return components.ContentCard("Startup Costs", body, w)
}

// renderBudgetChart shows cost per phase with the paid share highlighted.
func (a App) renderBudgetChart(w int) string {
	type phaseTotal struct {
		total, paid decimal.Decimal
	}
	var order []string
	totals := make(map[string]*phaseTotal)
	for _, b := range a.plan.Budget {
		pt, ok := totals[b.Phase]
		if !ok {
			pt = &phaseTotal{}
			totals[b.Phase] = pt
			order = append(order, b.Phase)
		}
		cost := b.Cost()
		pt.total = pt.total.Add(cost)
		if a.tracker.IsComplete(progress.BudgetItem, b.ID) {
			pt.paid = pt.paid.Add(cost)
		}
	}

	bars := make([]components.Bar, 0, len(order))
	for _, phase := range order {
		pt := totals[phase]
		label := phase
		if label == "" {
			label = "Other"
		}
		bars = append(bars, components.Bar{
			Label: label,
			Value: pt.total.InexactFloat64(),
			Done:  pt.paid.InexactFloat64(),
			Text:  cli.FormatMoney(pt.total, a.plan.Currency),
		})
	}

	return components.ContentCard("By Phase", components.HBarChart(bars, components.CardInnerWidth(w)), w)
}
