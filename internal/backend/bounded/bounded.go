// Package bounded implements a cache backend on top of an LRU cache with
// loader semantics: a miss runs a loader that fetches from the store and
// inserts the result, evicting the least recently used entry once the
// capacity is reached.
package bounded

import (
	"context"
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/store"
)

// Name is the scenario name of the bounded backend.
const Name = "bounded"

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// Backend is an LRU-bounded cache backend.
type Backend struct {
	store     store.Store
	cache     *lru.Cache[string, []byte]
	capacity  int
	collector stats.Collector

	evictions atomic.Int64
	purging   bool
	lastHit   bool
}

// New creates a bounded backend reading through s.
// A capacity of zero or less means unbounded.
// The collector is optional; if nil, a no-op collector is used.
func New(s store.Store, capacity int, collector stats.Collector) (*Backend, error) {
	if collector == nil {
		collector = stats.NewNoop()
	}

	b := &Backend{
		store:     s,
		capacity:  capacity,
		collector: collector,
	}

	size := capacity
	if size <= 0 {
		size = math.MaxInt
	}
	c, err := lru.NewWithEvict[string, []byte](size, b.onEvict)
	if err != nil {
		return nil, err
	}
	b.cache = c
	return b, nil
}

func (b *Backend) onEvict(string, []byte) {
	if b.purging {
		return
	}
	b.evictions.Add(1)
	b.collector.IncCounter(stats.Name(Name, stats.MetricEvictions), 1)
}

func (b *Backend) Name() string { return Name }

// Init purges the cache and seeds the store.
// Purged entries are not counted as evictions.
func (b *Backend) Init(ds dataset.Dataset) {
	b.purging = true
	b.cache.Purge()
	b.purging = false
	b.store.Init(ds)
}

// Get returns the cached value for key, running the loader on a miss.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := b.cache.Get(key); ok {
		b.lastHit = true
		return value, nil
	}

	b.lastHit = false
	return b.load(ctx, key)
}

// load fetches key from the store and caches it. Nothing is cached when the
// fetch fails.
func (b *Backend) load(ctx context.Context, key string) ([]byte, error) {
	value, err := b.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	b.cache.Add(key, value)
	return value, nil
}

func (b *Backend) Count() int { return b.cache.Len() }

func (b *Backend) LastReadWasHit() bool { return b.lastHit }

// Capacity returns the configured capacity; zero or less means unbounded.
func (b *Backend) Capacity() int { return b.capacity }

// Evictions returns how many entries were evicted to respect the capacity.
func (b *Backend) Evictions() int64 { return b.evictions.Load() }
