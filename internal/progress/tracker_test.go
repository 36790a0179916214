package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/agencyplan/internal/logging"
	"github.com/theirongolddev/agencyplan/internal/store"

	"github.com/shopspring/decimal"
)

func fixedClock(t *testing.T, s string) func() time.Time {
	t.Helper()
	d, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("parse clock %q: %v", s, err)
	}
	return func() time.Time { return d }
}

func newTracker(t *testing.T, kv store.KV) *Tracker {
	t.Helper()
	return New(kv, WithClock(fixedClock(t, "2025-03-01T09:30:15.123456789Z")))
}

func TestNew_Defaults(t *testing.T) {
	tr := newTracker(t, store.NewMemory())

	want := time.Date(2025, 3, 1, 9, 30, 15, 123_000_000, time.UTC)
	if !tr.StartDate().Equal(want) {
		t.Errorf("StartDate = %v, want %v", tr.StartDate(), want)
	}
	for _, cat := range Categories {
		if n := tr.Count(cat); n != 0 {
			t.Errorf("Count(%s) = %d, want 0", cat, n)
		}
	}
}

func TestSetItemState_RoundTrip(t *testing.T) {
	for _, start := range []bool{false, true} {
		tr := newTracker(t, store.NewMemory())
		tr.SetItemState(Goal, "goal1-1", start)

		tr.SetItemState(Goal, "goal1-1", !start)
		tr.SetItemState(Goal, "goal1-1", !start)
		tr.SetItemState(Goal, "goal1-1", start)

		if got := tr.IsComplete(Goal, "goal1-1"); got != start {
			t.Errorf("start=%v: after round trip IsComplete = %v", start, got)
		}
		if n := tr.Count(Goal); n != map[bool]int{false: 0, true: 1}[start] {
			t.Errorf("start=%v: Count = %d", start, n)
		}
	}
}

func TestSetItemState_CategoriesAreIndependent(t *testing.T) {
	tr := newTracker(t, store.NewMemory())
	tr.SetItemState(Goal, "shared", true)

	if tr.IsComplete(BudgetItem, "shared") || tr.IsComplete(ChecklistItem, "shared") {
		t.Fatal("completing a goal leaked into another category")
	}

	tr.SetItemState(BudgetItem, "shared", true)
	tr.SetItemState(Goal, "shared", false)
	if !tr.IsComplete(BudgetItem, "shared") {
		t.Error("removing the goal removed the budget item")
	}
}

func TestToggle(t *testing.T) {
	tr := newTracker(t, store.NewMemory())
	if !tr.Toggle(ChecklistItem, "c1") {
		t.Fatal("first Toggle returned false")
	}
	if tr.Toggle(ChecklistItem, "c1") {
		t.Fatal("second Toggle returned true")
	}
	if tr.IsComplete(ChecklistItem, "c1") {
		t.Error("item still complete after two toggles")
	}
}

func TestSerialize_Shape(t *testing.T) {
	tr := newTracker(t, store.NewMemory())
	tr.SetItemState(Goal, "b", true)
	tr.SetItemState(Goal, "a", true)

	data, err := json.Marshal(tr.Serialize())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"completedGoals":["a","b"],"completedBudgetItems":[],"completedChecklistItems":[],"startDate":"2025-03-01T09:30:15.123Z"}`
	if string(data) != want {
		t.Errorf("serialized =\n%s\nwant\n%s", data, want)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	src := New(kv, WithClock(fixedClock(t, "2024-11-05T18:00:00.5Z")))
	src.SetItemState(Goal, "goal1-3", true)
	src.SetItemState(Goal, "goal2-3", true)
	src.SetItemState(BudgetItem, "budget-license", true)
	src.SetItemState(ChecklistItem, "check-eo", true)
	if err := src.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := New(kv, WithClock(fixedClock(t, "2026-01-01T00:00:00Z")))
	if err := dst.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !dst.Equal(src) {
		t.Errorf("loaded state differs:\n got %+v\nwant %+v", dst.Serialize(), src.Serialize())
	}
	if dst.LastLoadError() != nil {
		t.Errorf("LastLoadError = %v", dst.LastLoadError())
	}
	if !dst.Found() {
		t.Error("Found = false after loading a saved slot")
	}
}

func TestLoad_MissingSlotKeepsDefaults(t *testing.T) {
	tr := newTracker(t, store.NewMemory())
	before := tr.Serialize()

	if err := tr.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tr.Serialize(); !equalSnapshots(got, before) {
		t.Errorf("state changed: %+v", got)
	}
	if tr.Found() {
		t.Error("Found = true for an empty store")
	}
}

func TestLoad_MalformedIsNonFatal(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{
		`{not json`,
		`[]`,
		`null`,
		`{"completedGoals": "goal1"}`,
		`{"completedGoals": [1, 2]}`,
		`{"completedGoals": []} trailing`,
	} {
		kv := store.NewMemory()
		_ = kv.Set(ctx, StorageKey, raw)

		var logBuf bytes.Buffer
		tr := New(kv,
			WithClock(fixedClock(t, "2025-01-01T00:00:00Z")),
			WithLogger(logging.New(&logBuf, logging.DefaultOptions())),
		)
		tr.SetItemState(Goal, "pre", true)

		if err := tr.Load(ctx); err != nil {
			t.Errorf("%q: Load returned %v, want nil", raw, err)
		}
		if !tr.IsComplete(Goal, "pre") || tr.Count(Goal) != 1 {
			t.Errorf("%q: pre-load state was replaced", raw)
		}
		if !errors.Is(tr.LastLoadError(), ErrInvalidSnapshot) {
			t.Errorf("%q: LastLoadError = %v, want ErrInvalidSnapshot", raw, tr.LastLoadError())
		}
		if !strings.Contains(logBuf.String(), "Error loading progress") {
			t.Errorf("%q: no diagnostic logged, got %q", raw, logBuf.String())
		}
	}
}

func TestLoad_UnparseableDateKeepsStartDate(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	_ = kv.Set(ctx, StorageKey, `{"completedGoals":["g"],"startDate":"next tuesday"}`)

	tr := newTracker(t, kv)
	before := tr.StartDate()
	if err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if !tr.StartDate().Equal(before) {
		t.Errorf("StartDate = %v, want unchanged %v", tr.StartDate(), before)
	}
	if !tr.IsComplete(Goal, "g") {
		t.Error("goal list not applied")
	}
}

func TestReset_ThenLoadFindsNothing(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := New(kv, WithClock(func() time.Time { return now }))
	tr.SetItemState(Goal, "g", true)
	tr.SetItemState(BudgetItem, "b", true)
	if err := tr.Save(ctx); err != nil {
		t.Fatal(err)
	}

	now = now.AddDate(0, 2, 0)
	if err := tr.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, StorageKey); ok {
		t.Fatal("slot still present after Reset")
	}
	if err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}
	for _, cat := range Categories {
		if tr.Count(cat) != 0 {
			t.Errorf("Count(%s) = %d after reset", cat, tr.Count(cat))
		}
	}
	if !tr.StartDate().Equal(now) {
		t.Errorf("StartDate = %v, want rebased to %v", tr.StartDate(), now)
	}
}

func TestSave_SurfacesStorageFailure(t *testing.T) {
	kv := store.NewMemory()
	kv.FailWrites = true
	tr := newTracker(t, kv)

	if err := tr.Save(context.Background()); !errors.Is(err, store.ErrWriteFailed) {
		t.Fatalf("Save = %v, want ErrWriteFailed", err)
	}
}

func TestExportSnapshot(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	tr := New(store.NewMemory(), WithClock(func() time.Time { return now }))
	now = now.Add(48 * time.Hour)
	tr.SetItemState(ChecklistItem, "c1", true)

	data, err := tr.ExportSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"completedChecklistItems\": [\n    \"c1\"\n  ]") {
		t.Errorf("export is not two-space indented:\n%s", data)
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("export does not decode: %v", err)
	}
	if snap.StartDate != "2025-02-01T12:00:00.000Z" {
		t.Errorf("startDate = %q", snap.StartDate)
	}
	if snap.ExportDate != "2025-02-03T12:00:00.000Z" {
		t.Errorf("exportDate = %q", snap.ExportDate)
	}
}

func TestImportSnapshot_Malformed(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	tr := newTracker(t, kv)
	tr.SetItemState(Goal, "g", true)
	tr.SetItemState(BudgetItem, "b", true)
	before := tr.Serialize()

	err := tr.ImportSnapshot(ctx, []byte(`{"completedGoals": [`))
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("ImportSnapshot = %v, want ErrInvalidSnapshot", err)
	}
	if got := tr.Serialize(); !equalSnapshots(got, before) {
		t.Errorf("state changed after failed import: %+v", got)
	}
	if _, ok, _ := kv.Get(ctx, StorageKey); ok {
		t.Error("failed import wrote to the store")
	}
}

func TestImportSnapshot_MissingFieldDefaultsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	tr := newTracker(t, kv)
	tr.SetItemState(Goal, "old-goal", true)

	raw := `{
	  "completedBudgetItems": ["budget-license", "budget-office"],
	  "completedChecklistItems": ["check-eo"],
	  "startDate": "2024-06-15T08:00:00.000Z",
	  "exportDate": "2024-07-01T00:00:00.000Z"
	}`
	if err := tr.ImportSnapshot(ctx, []byte(raw)); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}

	if tr.Count(Goal) != 0 {
		t.Errorf("goal set = %v, want empty", tr.Completed(Goal))
	}
	if got := tr.Completed(BudgetItem); len(got) != 2 || got[0] != "budget-license" || got[1] != "budget-office" {
		t.Errorf("budget set = %v", got)
	}
	if !tr.IsComplete(ChecklistItem, "check-eo") {
		t.Error("checklist item not imported")
	}
	if want := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC); !tr.StartDate().Equal(want) {
		t.Errorf("StartDate = %v, want %v", tr.StartDate(), want)
	}

	// Imported state is persisted immediately.
	reloaded := newTracker(t, kv)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if !reloaded.Equal(tr) {
		t.Errorf("persisted state %+v differs from imported %+v", reloaded.Serialize(), tr.Serialize())
	}
}

func TestOverallProgressPercent(t *testing.T) {
	tr := newTracker(t, store.NewMemory())
	if got := tr.OverallProgressPercent(0, 0, 0); got != 0 {
		t.Fatalf("zero totals = %d, want 0", got)
	}

	prev := tr.OverallProgressPercent(10, 5, 6)
	ids := []struct {
		cat Category
		id  string
	}{
		{Goal, "g1"}, {Goal, "g2"}, {BudgetItem, "b1"}, {ChecklistItem, "c1"},
		{Goal, "g3"}, {BudgetItem, "b2"}, {ChecklistItem, "c2"},
	}
	for _, it := range ids {
		tr.SetItemState(it.cat, it.id, true)
		got := tr.OverallProgressPercent(10, 5, 6)
		if got < prev {
			t.Fatalf("progress decreased from %d to %d after adding %s", prev, got, it.id)
		}
		if got < 0 || got > 100 {
			t.Fatalf("progress %d out of range", got)
		}
		prev = got
	}
	// 7 of 21 → 33.3%
	if prev != 33 {
		t.Errorf("progress = %d, want 33", prev)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds up
		{2, 3, 67},
		{5, 5, 100},
		{7, 5, 100},
	}
	for _, tc := range tests {
		if got := Percent(tc.completed, tc.total); got != tc.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
	}
}

func TestBudgetSummary(t *testing.T) {
	tr := newTracker(t, store.NewMemory())
	tr.SetItemState(BudgetItem, "a", true)
	tr.SetItemState(Goal, "b", true) // same text, different category

	s := tr.BudgetSummary([]BudgetLine{
		{ID: "a", Amount: decimal.NewFromInt(100)},
		{ID: "b", Amount: decimal.NewFromInt(200)},
	})

	if !s.TotalCost.Equal(decimal.NewFromInt(300)) {
		t.Errorf("TotalCost = %s, want 300", s.TotalCost)
	}
	if !s.CompletedCost.Equal(decimal.NewFromInt(100)) {
		t.Errorf("CompletedCost = %s, want 100", s.CompletedCost)
	}
	if !s.RemainingCost.Equal(decimal.NewFromInt(200)) {
		t.Errorf("RemainingCost = %s, want 200", s.RemainingCost)
	}
	if math.Abs(s.PercentComplete-100.0/3) > 1e-9 {
		t.Errorf("PercentComplete = %v, want 33.333...", s.PercentComplete)
	}
	if s.RoundedPercent() != 33 {
		t.Errorf("RoundedPercent = %d, want 33", s.RoundedPercent())
	}
}

func TestBudgetSummary_Empty(t *testing.T) {
	tr := newTracker(t, store.NewMemory())
	s := tr.BudgetSummary(nil)
	if !s.TotalCost.IsZero() || s.PercentComplete != 0 {
		t.Errorf("empty budget = %+v", s)
	}
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"1500":     "1500",
		"1,500.50": "1500.5",
		"$250":     "250",
		" 75.25 ":  "75.25",
		"":         "0",
		"tbd":      "0",
		"12abc":    "0",
	}
	for in, want := range tests {
		if got := ParseAmount(in); !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"goal": Goal, "budget": BudgetItem, "budgetItem": BudgetItem, "checklist": ChecklistItem,
	} {
		got, err := ParseCategory(in)
		if err != nil || got != want {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseCategory("resource"); err == nil {
		t.Error("ParseCategory(resource) succeeded")
	}
}

func equalSnapshots(a, b Snapshot) bool {
	x, _ := json.Marshal(a)
	y, _ := json.Marshal(b)
	return bytes.Equal(x, y)
}
