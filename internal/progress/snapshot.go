package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ExportFileName is the file name offered for exported snapshots.
const ExportFileName = "insurance-agency-progress.json"

// isoLayout matches JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrInvalidSnapshot is returned when persisted or imported data cannot be decoded.
var ErrInvalidSnapshot = errors.New("invalid progress snapshot")

// Snapshot is the serialized form of a Tracker.
type Snapshot struct {
	CompletedGoals          []string `json:"completedGoals"`
	CompletedBudgetItems    []string `json:"completedBudgetItems"`
	CompletedChecklistItems []string `json:"completedChecklistItems"`
	StartDate               string   `json:"startDate,omitempty"`
	ExportDate              string   `json:"exportDate,omitempty"`
}

const snapshotSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "completedGoals":          {"type": ["array", "null"], "items": {"type": "string"}},
    "completedBudgetItems":    {"type": ["array", "null"], "items": {"type": "string"}},
    "completedChecklistItems": {"type": ["array", "null"], "items": {"type": "string"}},
    "startDate":               {"type": ["string", "null"]},
    "exportDate":              {"type": ["string", "null"]}
  }
}`

var snapshotSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchemaJSON)

// Serialize captures the current state. Lists are sorted so that two
// serializations of the same state are byte-identical.
func (t *Tracker) Serialize() Snapshot {
	return Snapshot{
		CompletedGoals:          t.Completed(Goal),
		CompletedBudgetItems:    t.Completed(BudgetItem),
		CompletedChecklistItems: t.Completed(ChecklistItem),
		StartDate:               t.startDate.UTC().Format(isoLayout),
	}
}

// DecodeSnapshot parses raw and checks it has the snapshot shape. Missing or
// null lists decode to nil.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Snapshot{}, fmt.Errorf("%w: trailing data after JSON document", ErrInvalidSnapshot)
	}
	if err := snapshotSchema.Validate(doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

// apply replaces all three sets and, when snap carries a parseable date, the start date.
func (t *Tracker) apply(snap Snapshot) {
	t.completed = map[Category]mapset.Set[string]{
		Goal:          mapset.NewThreadUnsafeSet(snap.CompletedGoals...),
		BudgetItem:    mapset.NewThreadUnsafeSet(snap.CompletedBudgetItems...),
		ChecklistItem: mapset.NewThreadUnsafeSet(snap.CompletedChecklistItems...),
	}
	if start, ok := parseDate(snap.StartDate); ok {
		t.startDate = start
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC().Truncate(time.Millisecond), true
		}
	}
	return time.Time{}, false
}

// Save writes the serialized state to the tracker's KV slot, replacing any prior value.
func (t *Tracker) Save(ctx context.Context) error {
	data, err := json.Marshal(t.Serialize())
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := t.kv.Set(ctx, t.key, string(data)); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// Load replaces the state with the persisted snapshot, if any. A slot that
// cannot be decoded leaves the state untouched and is only logged: Load
// returns an error only when the store itself cannot be read.
func (t *Tracker) Load(ctx context.Context) error {
	t.lastLoadErr = nil
	t.found = false

	raw, ok, err := t.kv.Get(ctx, t.key)
	if err != nil {
		return fmt.Errorf("loading progress: %w", err)
	}
	if !ok {
		return nil
	}

	snap, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		t.lastLoadErr = err
		t.logger.Warn("Error loading progress", "key", t.key, "err", err)
		return nil
	}
	t.apply(snap)
	t.found = true
	return nil
}

// Found reports whether the most recent Load restored a saved slot. When it
// is false the tracker holds defaults, including a start date of now.
func (t *Tracker) Found() bool { return t.found }

// LastLoadError returns the decode failure from the most recent Load, if any.
func (t *Tracker) LastLoadError() error { return t.lastLoadErr }

// Reset clears every set, restarts the plan today and deletes the persisted
// slot. There is no undo; callers confirm with the user first.
func (t *Tracker) Reset(ctx context.Context) error {
	t.clear()
	if err := t.kv.Remove(ctx, t.key); err != nil {
		return fmt.Errorf("clearing saved progress: %w", err)
	}
	return nil
}

// ExportSnapshot returns the current state plus an export timestamp as an
// indented JSON document.
func (t *Tracker) ExportSnapshot() ([]byte, error) {
	snap := t.Serialize()
	snap.ExportDate = t.clock().Format(isoLayout)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return append(data, '\n'), nil
}

// ImportSnapshot replaces the state with raw and saves it. If raw cannot be
// decoded the state is left untouched and an ErrInvalidSnapshot is returned.
func (t *Tracker) ImportSnapshot(ctx context.Context, raw []byte) error {
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return err
	}
	t.apply(snap)
	return t.Save(ctx)
}
