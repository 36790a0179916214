package roadmap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/store"

	"github.com/shopspring/decimal"
)

func TestDefault(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	goals, budget, checklist := p.Counts()
	if goals == 0 || budget == 0 || checklist == 0 {
		t.Fatalf("Counts = %d/%d/%d, want all non-zero", goals, budget, checklist)
	}
	if len(p.Resources) == 0 {
		t.Error("no resources in default plan")
	}
	if p.Currency != "USD" {
		t.Errorf("Currency = %q", p.Currency)
	}

	majors := 0
	for _, g := range p.Goals {
		if g.Major {
			majors++
		}
	}
	if majors < MinMajorGoals {
		t.Errorf("default plan has %d major goals, fewer than %d", majors, MinMajorGoals)
	}

	for _, b := range p.Budget {
		if !b.Cost().IsPositive() {
			t.Errorf("budget item %s amount %q parsed to %s", b.ID, b.Amount, b.Cost())
		}
	}
}

func TestParse_DuplicateID(t *testing.T) {
	_, err := Parse([]byte(`
[[goals]]
id = "g1"
[[goals]]
id = "g1"
`))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Parse = %v, want ErrDuplicateID", err)
	}
}

func TestParse_SameIDAcrossCategories(t *testing.T) {
	p, err := Parse([]byte(`
[[goals]]
id = "x"
[[checklist]]
id = "x"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := p.Resolve("x"); !errors.Is(err, ErrAmbiguousItem) {
		t.Errorf("Resolve(x) = %v, want ErrAmbiguousItem", err)
	}
	if _, err := p.Resolve("nope"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Resolve(nope) = %v, want ErrUnknownItem", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.toml")
	data := `
title = "Bakery"
[[budget]]
id = "oven"
label = "Oven"
amount = "not a number"
[[budget]]
id = "mixer"
label = "Mixer"
amount = "$1,200.50"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Title != "Bakery" {
		t.Errorf("Title = %q", p.Title)
	}

	lines := p.BudgetLines()
	if len(lines) != 2 {
		t.Fatalf("BudgetLines len = %d", len(lines))
	}
	if !lines[0].Amount.IsZero() {
		t.Errorf("unparsable amount = %s, want 0", lines[0].Amount)
	}
	if !lines[1].Amount.Equal(decimal.RequireFromString("1200.5")) {
		t.Errorf("mixer amount = %s", lines[1].Amount)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFile of missing file succeeded")
	}
}

func TestGoalDueDate(t *testing.T) {
	start := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	g := Goal{Days: 10}
	if got, want := g.DueDate(start), time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("DueDate = %v, want %v", got, want)
	}
}

func TestGoalDueDate_CountsLocalDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	prev := time.Local
	time.Local = ny
	t.Cleanup(func() { time.Local = prev })

	// 11:30pm Mar 1 local is already Mar 2 in UTC, and DST starts on Mar 9.
	start := time.Date(2025, 3, 1, 23, 30, 0, 0, ny).UTC()
	got := Goal{Days: 10}.DueDate(start)
	if y, m, d := got.Date(); y != 2025 || m != time.March || d != 11 {
		t.Errorf("DueDate = %v, want Mar 11 local", got)
	}
	if got.Location() != time.Local {
		t.Errorf("DueDate location = %v, want local", got.Location())
	}
}

func TestPhasesAndSections(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	phases := p.Phases()
	if len(phases) != 7 {
		t.Errorf("Phases = %v, want 7 months", phases)
	}
	n := 0
	for _, ph := range phases {
		n += len(p.GoalsInPhase(ph))
	}
	if n != len(p.Goals) {
		t.Errorf("goals across phases = %d, want %d", n, len(p.Goals))
	}
	if len(p.Sections()) == 0 {
		t.Error("no checklist sections")
	}
}

func TestLaunchReadiness(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	tr := progress.New(store.NewMemory())

	tr.SetItemState(progress.Goal, "goal1-3", true)
	tr.SetItemState(progress.Goal, "goal2-3", true)
	tr.SetItemState(progress.Goal, "goal1-1", true) // not major
	if r := p.LaunchReadiness(tr); r.Ready() {
		t.Fatalf("ready with %d major goals", len(r.Completed))
	}

	tr.SetItemState(progress.Goal, "goal7-2", true)
	r := p.LaunchReadiness(tr)
	if !r.Ready() {
		t.Fatalf("not ready with %d major goals complete", len(r.Completed))
	}
	if len(r.Completed) != 3 || len(r.Pending) != 2 {
		t.Errorf("Completed=%d Pending=%d, want 3 and 2", len(r.Completed), len(r.Pending))
	}
}

func TestPlanProgress(t *testing.T) {
	p, err := Parse([]byte(`
[[goals]]
id = "g1"
[[budget]]
id = "b1"
amount = "100"
[[budget]]
id = "b2"
amount = "300"
[[checklist]]
id = "c1"
`))
	if err != nil {
		t.Fatal(err)
	}
	tr := progress.New(store.NewMemory())
	tr.SetItemState(progress.BudgetItem, "b2", true)

	if got := p.Progress(tr); got != 25 {
		t.Errorf("Progress = %d, want 25", got)
	}
	s := p.BudgetSummary(tr)
	if !s.CompletedCost.Equal(decimal.NewFromInt(300)) || s.RoundedPercent() != 75 {
		t.Errorf("BudgetSummary = %+v", s)
	}
	if got := p.ItemTitle(progress.BudgetItem, "missing"); got != "missing" {
		t.Errorf("Title fallback = %q", got)
	}
}

func TestCompletedCount_IgnoresIDsOutsidePlan(t *testing.T) {
	p, err := Parse([]byte(`
[[goals]]
id = "g1"
[[goals]]
id = "g2"
`))
	if err != nil {
		t.Fatal(err)
	}
	tr := progress.New(store.NewMemory())
	tr.SetItemState(progress.Goal, "g2", true)
	tr.SetItemState(progress.Goal, "retired-goal", true)

	if got := p.CompletedCount(tr, progress.Goal); got != 1 {
		t.Errorf("CompletedCount = %d, want 1", got)
	}
	if got := p.CompletedCount(tr, progress.ChecklistItem); got != 0 {
		t.Errorf("CompletedCount(checklist) = %d, want 0", got)
	}
}
