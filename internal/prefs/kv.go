// Package prefs persists user preferences across sessions.
//
// A KV is a tiny string slot store with three backends: a JSON file (the default), an
// SQLite database, and process memory. Adapter maps the theme preference onto a KV slot
// and ResolveTheme decides the theme a session starts with.
package prefs

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable is returned when a durable backend cannot be opened or written.
var ErrUnavailable = errors.New("preference storage unavailable")

// KV stores string values by key.
type KV interface {
	// Get returns the value of key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// MemoryKV keeps values for the lifetime of the process.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Close() error { return nil }
