package progress

import "fmt"

// Category names one of the independently tracked item namespaces.
type Category int

const (
	Goal Category = iota
	BudgetItem
	ChecklistItem
)

// Categories lists every category in display order.
var Categories = []Category{Goal, BudgetItem, ChecklistItem}

func (c Category) String() string {
	switch c {
	case Goal:
		return "goal"
	case BudgetItem:
		return "budgetItem"
	case ChecklistItem:
		return "checklistItem"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Label is the human-readable plural used in tables.
func (c Category) Label() string {
	switch c {
	case Goal:
		return "Goals"
	case BudgetItem:
		return "Budget items"
	case ChecklistItem:
		return "Checklist items"
	default:
		return c.String()
	}
}

// ParseCategory accepts the canonical names plus the short CLI spellings
// "goal", "budget" and "checklist".
func ParseCategory(s string) (Category, error) {
	switch s {
	case "goal", "goals":
		return Goal, nil
	case "budget", "budgetItem", "budget-item":
		return BudgetItem, nil
	case "checklist", "checklistItem", "checklist-item":
		return ChecklistItem, nil
	}
	return 0, fmt.Errorf("unknown category %q (want goal, budget or checklist)", s)
}
