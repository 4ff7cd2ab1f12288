// Package backend defines the cache backends compared by the benchmark.
//
// A backend wraps a store.Store with a cache container. Every variant must
// return the same value for the same key; they differ only in how the
// container retains entries.
package backend

import (
	"context"

	"github.com/discochess/cachebench/internal/dataset"
)

// Backend defines the interface for cache backends.
//
// A Backend is not safe for concurrent use: LastReadWasHit describes the
// most recent Get and is meant to be read by the same goroutine right
// after Get returns.
type Backend interface {
	// Name identifies the backend in metrics and reports.
	Name() string

	// Init clears the cache and seeds the wrapped store with ds.
	Init(ds dataset.Dataset)

	// Get returns the value for key, from the cache on a hit or from the
	// store on a miss, in which case the value is cached. Store errors are
	// returned unchanged and leave the cache untouched.
	Get(ctx context.Context, key string) ([]byte, error)

	// Count returns the number of cached entries.
	Count() int

	// LastReadWasHit reports whether the last Get was served from the cache.
	LastReadWasHit() bool
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of entries
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
