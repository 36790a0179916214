// Package progress holds the completion state of a plan: three independent
// sets of completed item IDs plus the plan's start date.
//
// A Tracker is owned by a single goroutine. Callers mutate it with
// SetItemState, re-derive aggregates, then Save; nothing is persisted
// implicitly.
package progress

import (
	"slices"
	"time"

	"github.com/theirongolddev/agencyplan/internal/logging"
	"github.com/theirongolddev/agencyplan/internal/store"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
)

// StorageKey is the default KV slot progress is persisted under.
const StorageKey = "insuranceAgencyProgress"

// Tracker is the in-memory progress state bound to one KV slot.
type Tracker struct {
	kv     store.KV
	key    string
	now    func() time.Time
	logger *log.Logger

	startDate time.Time
	completed map[Category]mapset.Set[string]

	found       bool
	lastLoadErr error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger routes load diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithKey persists under key instead of StorageKey.
func WithKey(key string) Option {
	return func(t *Tracker) {
		if key != "" {
			t.key = key
		}
	}
}

// New returns an empty tracker whose start date is now. It does not read kv;
// call Load for that.
func New(kv store.KV, opts ...Option) *Tracker {
	t := &Tracker{
		kv:  kv,
		key: StorageKey,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.Discard()
	}
	t.clear()
	return t
}

func (t *Tracker) clear() {
	t.startDate = t.clock()
	t.completed = map[Category]mapset.Set[string]{
		Goal:          mapset.NewThreadUnsafeSet[string](),
		BudgetItem:    mapset.NewThreadUnsafeSet[string](),
		ChecklistItem: mapset.NewThreadUnsafeSet[string](),
	}
}

// clock returns now at the millisecond precision snapshots carry.
func (t *Tracker) clock() time.Time {
	return t.now().UTC().Truncate(time.Millisecond)
}

// Key returns the KV slot this tracker persists to.
func (t *Tracker) Key() string { return t.key }

// StartDate returns the plan start date.
func (t *Tracker) StartDate() time.Time { return t.startDate }

// SetItemState marks id complete or incomplete within cat. Applying the same
// call twice is a no-op the second time.
func (t *Tracker) SetItemState(cat Category, id string, complete bool) {
	set, ok := t.completed[cat]
	if !ok {
		t.logger.Debug("ignoring toggle for unknown category", "category", cat, "id", id)
		return
	}
	if complete {
		set.Add(id)
	} else {
		set.Remove(id)
	}
}

// Toggle flips id within cat and returns its new state.
func (t *Tracker) Toggle(cat Category, id string) bool {
	next := !t.IsComplete(cat, id)
	t.SetItemState(cat, id, next)
	return next
}

// IsComplete reports whether id is marked complete within cat.
func (t *Tracker) IsComplete(cat Category, id string) bool {
	set, ok := t.completed[cat]
	return ok && set.Contains(id)
}

// Count returns how many ids are complete within cat.
func (t *Tracker) Count(cat Category) int {
	set, ok := t.completed[cat]
	if !ok {
		return 0
	}
	return set.Cardinality()
}

// Completed returns the completed ids of cat in sorted order.
func (t *Tracker) Completed(cat Category) []string {
	set, ok := t.completed[cat]
	if !ok {
		return []string{}
	}
	ids := set.ToSlice()
	slices.Sort(ids)
	return ids
}

// Equal reports whether both trackers hold the same sets and start date.
func (t *Tracker) Equal(other *Tracker) bool {
	if !t.startDate.Equal(other.startDate) {
		return false
	}
	for _, cat := range Categories {
		if !t.completed[cat].Equal(other.completed[cat]) {
			return false
		}
	}
	return true
}
