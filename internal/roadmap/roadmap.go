// Package roadmap describes the plan being tracked: its timeline goals, budget
// items, checklist and reference links. Progress only stores opaque IDs; this
// package is what gives them titles, due dates and amounts.
package roadmap

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/agencyplan/internal/progress"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

//go:embed default_plan.toml
var defaultPlanTOML []byte

// MinMajorGoals is how many major goals must be complete before launch.
const MinMajorGoals = 3

var (
	// ErrDuplicateID is returned when an ID repeats within one category.
	ErrDuplicateID = errors.New("duplicate item id")
	// ErrUnknownItem is returned when an ID is not part of the plan.
	ErrUnknownItem = errors.New("unknown item id")
	// ErrAmbiguousItem is returned when an ID exists in more than one category.
	ErrAmbiguousItem = errors.New("item id exists in more than one category")
)

// Plan is a complete roadmap.
type Plan struct {
	Title     string          `toml:"title"`
	Location  string          `toml:"location"`
	Currency  string          `toml:"currency"`
	Goals     []Goal          `toml:"goals"`
	Budget    []BudgetItem    `toml:"budget"`
	Checklist []ChecklistItem `toml:"checklist"`
	Resources []Resource      `toml:"resources"`
}

// Goal is a timeline milestone.
type Goal struct {
	ID    string `toml:"id"`
	Phase string `toml:"phase"`
	Title string `toml:"title"`
	Days  int    `toml:"days"`
	Major bool   `toml:"major"`
}

// DueDate returns the goal's target date for a plan started at start.
// Days are counted on the local calendar.
func (g Goal) DueDate(start time.Time) time.Time {
	return start.Local().AddDate(0, 0, g.Days)
}

// BudgetItem is one startup expense. Amount is kept as written so that
// "2,500" and "$75" are accepted.
type BudgetItem struct {
	ID     string `toml:"id"`
	Phase  string `toml:"phase"`
	Label  string `toml:"label"`
	Amount string `toml:"amount"`
}

// Cost returns the parsed amount, zero if unparsable.
func (b BudgetItem) Cost() decimal.Decimal {
	return progress.ParseAmount(b.Amount)
}

// ChecklistItem is a detailed task.
type ChecklistItem struct {
	ID      string `toml:"id"`
	Section string `toml:"section"`
	Title   string `toml:"title"`
}

// Resource is an external reference link.
type Resource struct {
	Name        string `toml:"name"`
	URL         string `toml:"url"`
	Description string `toml:"description"`
}

// Default returns the built-in insurance agency plan.
func Default() (*Plan, error) {
	return Parse(defaultPlanTOML)
}

// LoadFile reads a plan from a TOML file. An empty path returns Default.
func LoadFile(path string) (*Plan, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path) //nolint:gosec // plan path is chosen by the local user
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a TOML plan.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every ID is non-empty and unique within its category.
// The same text may appear in different categories.
func (p *Plan) Validate() error {
	for _, cat := range progress.Categories {
		seen := make(map[string]bool)
		for _, id := range p.IDs(cat) {
			if id == "" {
				return fmt.Errorf("%s with empty id", cat)
			}
			if seen[id] {
				return fmt.Errorf("%w: %s %q", ErrDuplicateID, cat, id)
			}
			seen[id] = true
		}
	}
	return nil
}

// IDs returns the item IDs of cat in plan order.
func (p *Plan) IDs(cat progress.Category) []string {
	var ids []string
	switch cat {
	case progress.Goal:
		for _, g := range p.Goals {
			ids = append(ids, g.ID)
		}
	case progress.BudgetItem:
		for _, b := range p.Budget {
			ids = append(ids, b.ID)
		}
	case progress.ChecklistItem:
		for _, c := range p.Checklist {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Counts returns the number of goals, budget items and checklist items.
func (p *Plan) Counts() (goals, budget, checklist int) {
	return len(p.Goals), len(p.Budget), len(p.Checklist)
}

// Has reports whether id is an item of cat.
func (p *Plan) Has(cat progress.Category, id string) bool {
	for _, x := range p.IDs(cat) {
		if x == id {
			return true
		}
	}
	return false
}

// Resolve finds the category of id. It fails when id is unknown or appears in
// more than one category.
func (p *Plan) Resolve(id string) (progress.Category, error) {
	var found []progress.Category
	for _, cat := range progress.Categories {
		if p.Has(cat, id) {
			found = append(found, cat)
		}
	}
	switch len(found) {
	case 0:
		return 0, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	case 1:
		return found[0], nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrAmbiguousItem, id)
	}
}

// ItemTitle returns the display title of id within cat, or id itself.
func (p *Plan) ItemTitle(cat progress.Category, id string) string {
	switch cat {
	case progress.Goal:
		for _, g := range p.Goals {
			if g.ID == id {
				return g.Title
			}
		}
	case progress.BudgetItem:
		for _, b := range p.Budget {
			if b.ID == id {
				return b.Label
			}
		}
	case progress.ChecklistItem:
		for _, c := range p.Checklist {
			if c.ID == id {
				return c.Title
			}
		}
	}
	return id
}

// BudgetLines converts the budget into the form progress totals are computed over.
func (p *Plan) BudgetLines() []progress.BudgetLine {
	lines := make([]progress.BudgetLine, 0, len(p.Budget))
	for _, b := range p.Budget {
		lines = append(lines, progress.BudgetLine{ID: b.ID, Amount: b.Cost()})
	}
	return lines
}

// Phases returns goal phases in first-seen order.
func (p *Plan) Phases() []string {
	var phases []string
	seen := make(map[string]bool)
	for _, g := range p.Goals {
		if !seen[g.Phase] {
			seen[g.Phase] = true
			phases = append(phases, g.Phase)
		}
	}
	return phases
}

// GoalsInPhase returns the goals of phase in plan order.
func (p *Plan) GoalsInPhase(phase string) []Goal {
	var out []Goal
	for _, g := range p.Goals {
		if g.Phase == phase {
			out = append(out, g)
		}
	}
	return out
}

// Sections returns checklist sections in first-seen order.
func (p *Plan) Sections() []string {
	var sections []string
	seen := make(map[string]bool)
	for _, c := range p.Checklist {
		if !seen[c.Section] {
			seen[c.Section] = true
			sections = append(sections, c.Section)
		}
	}
	return sections
}

// CompletedCount counts items of cat in this plan that t marks complete. IDs
// held by t that the plan does not list are ignored.
func (p *Plan) CompletedCount(t *progress.Tracker, cat progress.Category) int {
	n := 0
	for _, id := range p.IDs(cat) {
		if t.IsComplete(cat, id) {
			n++
		}
	}
	return n
}

// Progress computes the overall completion percentage of t against this plan.
func (p *Plan) Progress(t *progress.Tracker) int {
	goals, budget, checklist := p.Counts()
	return t.OverallProgressPercent(goals, budget, checklist)
}

// BudgetSummary computes budget totals of t against this plan.
func (p *Plan) BudgetSummary(t *progress.Tracker) progress.BudgetSummary {
	return t.BudgetSummary(p.BudgetLines())
}

// Readiness reports whether enough major goals are complete to launch.
type Readiness struct {
	Completed []Goal
	Pending   []Goal
	Required  int
}

// Ready reports whether the launch threshold is met.
func (r Readiness) Ready() bool {
	return len(r.Completed) >= r.Required
}

// LaunchReadiness checks the major goals of the plan against t.
func (p *Plan) LaunchReadiness(t *progress.Tracker) Readiness {
	r := Readiness{Required: MinMajorGoals}
	for _, g := range p.Goals {
		if !g.Major {
			continue
		}
		if t.IsComplete(progress.Goal, g.ID) {
			r.Completed = append(r.Completed, g)
		} else {
			r.Pending = append(r.Pending, g)
		}
	}
	if total := len(r.Completed) + len(r.Pending); total < r.Required {
		r.Required = total
	}
	return r
}
