// Package hashmap implements a naive cache backend that keeps every entry
// it ever loads until the next Init.
package hashmap

import (
	"context"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/store"
)

// Name is the scenario name of the hashmap backend.
const Name = "hashmap"

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// Backend caches entries in an unbounded map.
type Backend struct {
	store   store.Store
	entries map[string][]byte
	lastHit bool
}

// New creates a hashmap backend reading through s.
func New(s store.Store) *Backend {
	return &Backend{
		store:   s,
		entries: make(map[string][]byte),
	}
}

func (b *Backend) Name() string { return Name }

// Init drops every cached entry and seeds the store.
func (b *Backend) Init(ds dataset.Dataset) {
	clear(b.entries)
	b.store.Init(ds)
}

// Get returns the cached value for key, loading it from the store on a miss.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := b.entries[key]; ok {
		b.lastHit = true
		return value, nil
	}

	b.lastHit = false
	value, err := b.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	b.entries[key] = value
	return value, nil
}

func (b *Backend) Count() int { return len(b.entries) }

func (b *Backend) LastReadWasHit() bool { return b.lastHit }
