// Package daemon provides the long-running progress monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/theirongolddev/agencyplan/internal/logging"
	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/roadmap"
	"github.com/theirongolddev/agencyplan/internal/store"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/shopspring/decimal"
)

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventProgressDelta = "progress_delta"
)

// Config controls the daemon runtime behavior.
type Config struct {
	// Open returns a fresh handle on the progress store. The service closes
	// it after every poll so the TUI and CLI can write in between.
	Open         func() (store.KV, error)
	StorageKey   string
	StorePath    string
	Plan         *roadmap.Plan
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *log.Logger
}

// Snapshot is a compact progress state for status/event payloads.
type Snapshot struct {
	At                      time.Time       `json:"at"`
	StartDate               time.Time       `json:"start_date"`
	OverallPercent          int             `json:"overall_percent"`
	CompletedGoals          int             `json:"completed_goals"`
	TotalGoals              int             `json:"total_goals"`
	CompletedBudgetItems    int             `json:"completed_budget_items"`
	TotalBudgetItems        int             `json:"total_budget_items"`
	CompletedChecklistItems int             `json:"completed_checklist_items"`
	TotalChecklistItems     int             `json:"total_checklist_items"`
	Currency                string          `json:"currency"`
	BudgetTotal             decimal.Decimal `json:"budget_total"`
	BudgetPaid              decimal.Decimal `json:"budget_paid"`
	BudgetRemaining         decimal.Decimal `json:"budget_remaining"`
	LaunchReady             bool            `json:"launch_ready"`
	// Version hashes the persisted state; equal versions mean equal progress.
	Version uint64 `json:"version"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	OverallPercent int             `json:"overall_percent"`
	Goals          int             `json:"goals"`
	BudgetItems    int             `json:"budget_items"`
	ChecklistItems int             `json:"checklist_items"`
	BudgetPaid     decimal.Decimal `json:"budget_paid"`
}

func (d Delta) isZero() bool {
	return d.OverallPercent == 0 &&
		d.Goals == 0 &&
		d.BudgetItems == 0 &&
		d.ChecklistItems == 0 &&
		d.BudgetPaid.IsZero()
}

// Event is emitted whenever the progress snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	StorePath       string    `json:"store_path"`
	StorageKey      string    `json:"storage_key"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	now func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = progress.StorageKey
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	return &Service{
		cfg:       cfg,
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.now()
	snap, err := s.readSnapshot(ctx, now)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.cfg.Logger.Error("poll failed", "err", err)
		return
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() || prev.Version != snap.Version {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventProgressDelta,
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.cfg.Logger.Debug("publishing event", "type", ev.Type, "id", ev.ID, "percent", snap.OverallPercent)
		s.publishEvent(ev)
	}
}

// readSnapshot opens the store, loads the tracker and closes the store again.
func (s *Service) readSnapshot(ctx context.Context, at time.Time) (Snapshot, error) {
	if s.cfg.Open == nil || s.cfg.Plan == nil {
		return Snapshot{}, errors.New("daemon: store and plan are required")
	}
	kv, err := s.cfg.Open()
	if err != nil {
		return Snapshot{}, fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = kv.Close() }()

	tr := progress.New(kv, progress.WithKey(s.cfg.StorageKey), progress.WithLogger(s.cfg.Logger))
	if err := tr.Load(ctx); err != nil {
		return Snapshot{}, err
	}
	if lerr := tr.LastLoadError(); lerr != nil {
		s.cfg.Logger.Warn("saved progress is unreadable, reporting defaults", "err", lerr)
	}
	return snapshotFromTracker(s.cfg.Plan, tr, at)
}

// snapshotFromTracker summarizes tr. Without a saved slot the start date is
// left zero so that polls of an untouched store stay identical.
func snapshotFromTracker(plan *roadmap.Plan, tr *progress.Tracker, at time.Time) (Snapshot, error) {
	persisted := tr.Serialize()
	var start time.Time
	if tr.Found() {
		start = tr.StartDate()
	} else {
		persisted.StartDate = ""
	}
	version, err := hashstructure.Hash(persisted, hashstructure.FormatV2, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("hashing progress: %w", err)
	}

	goals, budget, checklist := plan.Counts()
	sum := plan.BudgetSummary(tr)
	return Snapshot{
		At:                      at,
		StartDate:               start,
		OverallPercent:          plan.Progress(tr),
		CompletedGoals:          plan.CompletedCount(tr, progress.Goal),
		TotalGoals:              goals,
		CompletedBudgetItems:    plan.CompletedCount(tr, progress.BudgetItem),
		TotalBudgetItems:        budget,
		CompletedChecklistItems: plan.CompletedCount(tr, progress.ChecklistItem),
		TotalChecklistItems:     checklist,
		Currency:                plan.Currency,
		BudgetTotal:             sum.TotalCost,
		BudgetPaid:              sum.CompletedCost,
		BudgetRemaining:         sum.RemainingCost,
		LaunchReady:             plan.LaunchReadiness(tr).Ready(),
		Version:                 version,
	}, nil
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		OverallPercent: curr.OverallPercent - prev.OverallPercent,
		Goals:          curr.CompletedGoals - prev.CompletedGoals,
		BudgetItems:    curr.CompletedBudgetItems - prev.CompletedBudgetItems,
		ChecklistItems: curr.CompletedChecklistItems - prev.CompletedChecklistItems,
		BudgetPaid:     curr.BudgetPaid.Sub(prev.BudgetPaid),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		StorePath:       s.cfg.StorePath,
		StorageKey:      s.cfg.StorageKey,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.snapshotStatus()
	etag := `"` + strconv.FormatUint(st.Summary.Version, 16) + `"`
	w.Header().Set("ETag", etag)
	if st.Summary.Version != 0 && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
