// Package memstore provides an in-memory store with no latency or failures.
package memstore

import (
	"context"
	"sync"

	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory key/value store.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
	reads   int64
}

// New creates a new empty in-memory store.
func New() *Store {
	return &Store{
		entries: make(map[string][]byte),
	}
}

// Init replaces the contents of the store with ds.
// The dataset map is copied so later caller mutations do not leak in.
func (s *Store) Init(ds dataset.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = ds.Clone()
}

// Set sets the value for a single key (for test setup).
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	s.entries[key] = copied
}

// Get reads a value from memory.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	value, ok := s.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return value, nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reads returns how many Get calls the store has served.
func (s *Store) Reads() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
