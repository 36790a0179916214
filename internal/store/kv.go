// Package store provides the key/value slot that progress state is persisted into.
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrWriteFailed is returned by Memory when writes are disabled.
var ErrWriteFailed = errors.New("store: write failed")

// KV is a string key/value store with a handful of named slots.
type KV interface {
	// Get returns the value stored at key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value stored at key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Stamped is implemented by stores that record when each key was last written.
type Stamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "agencyplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "agencyplan")
}

// DefaultPath returns the default SQLite database location.
func DefaultPath() string {
	return filepath.Join(DataDir(), "progress.db")
}

// Memory is an in-process KV, used in tests and when persistence is disabled.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]string
	updated map[string]time.Time

	// FailWrites makes Set and Remove return ErrWriteFailed.
	FailWrites bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:    make(map[string]string),
		updated: make(map[string]time.Time),
	}
}

// Get implements KV.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements KV.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed
	}
	m.data[key] = value
	m.updated[key] = time.Now()
	return nil
}

// Remove implements KV.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed
	}
	delete(m.data, key)
	delete(m.updated, key)
	return nil
}

// UpdatedAt implements Stamped.
func (m *Memory) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updated[key], nil
}

// Close implements KV.
func (m *Memory) Close() error { return nil }
