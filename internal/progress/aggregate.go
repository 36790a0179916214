package progress

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent returns round(100*completed/total) clamped to [0,100], or 0 when
// total is not positive.
func Percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	if pct > 100 {
		return 100
	}
	return pct
}

// OverallProgressPercent combines all three categories against the item
// counts the caller knows about. Counts are supplied by the caller because the
// tracker does not know which items exist.
func (t *Tracker) OverallProgressPercent(totalGoals, totalBudgetItems, totalChecklistItems int) int {
	total := totalGoals + totalBudgetItems + totalChecklistItems
	completed := t.Count(Goal) + t.Count(BudgetItem) + t.Count(ChecklistItem)
	return Percent(completed, total)
}

// BudgetLine is one budget item and its cost.
type BudgetLine struct {
	ID     string
	Amount decimal.Decimal
}

// BudgetSummary holds derived budget totals.
type BudgetSummary struct {
	TotalCost     decimal.Decimal
	CompletedCost decimal.Decimal
	RemainingCost decimal.Decimal
	// PercentComplete is the unrounded 100*completed/total, or 0 for an empty budget.
	PercentComplete float64
}

// RoundedPercent returns PercentComplete rounded half away from zero.
func (s BudgetSummary) RoundedPercent() int {
	return int(math.Round(s.PercentComplete))
}

// BudgetSummary totals items, counting an item as paid when its id is a
// completed budget item. Negative amounts count as zero.
func (t *Tracker) BudgetSummary(items []BudgetLine) BudgetSummary {
	var s BudgetSummary
	for _, it := range items {
		amount := it.Amount
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		s.TotalCost = s.TotalCost.Add(amount)
		if t.IsComplete(BudgetItem, it.ID) {
			s.CompletedCost = s.CompletedCost.Add(amount)
		}
	}
	s.RemainingCost = s.TotalCost.Sub(s.CompletedCost)
	if s.TotalCost.IsPositive() {
		s.PercentComplete = s.CompletedCost.Mul(hundred).DivRound(s.TotalCost, 12).InexactFloat64()
	}
	return s
}

// ParseAmount parses a currency amount such as "1500", "1,500.00" or "$250".
// Anything unparsable is zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
