// Package secondlevel implements a cache backend that delegates storage to
// an external cache with its own eviction and expiry policy.
//
// The external cache does not report whether a read was a hit, so the
// backend infers it: a Get that finds a value is a hit, anything else is a
// miss. Collaborators that admit entries asynchronously or expire them on
// their own schedule can make this flag imprecise.
package secondlevel

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/store"
)

// Name is the scenario name of the second-level backend.
const Name = "secondlevel"

// Cache is the external cache a Backend delegates to.
type Cache interface {
	// Get returns the cached value for key, if present.
	Get(key string) ([]byte, bool)

	// Put stores value under key.
	Put(key string, value []byte) error

	// RemoveAll drops every entry.
	RemoveAll() error

	// Size returns the number of entries currently held.
	Size() int
}

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used to report collaborator failures.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// Backend adapts a Cache to the backend.Backend interface.
type Backend struct {
	store   store.Store
	cache   Cache
	logger  *zap.Logger
	lastHit bool
}

// New creates a second-level backend reading through s and caching in c.
func New(s store.Store, c Cache, opts ...Option) *Backend {
	b := &Backend{
		store:  s,
		cache:  c,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return Name }

// Init empties the external cache and seeds the store.
func (b *Backend) Init(ds dataset.Dataset) {
	if err := b.cache.RemoveAll(); err != nil {
		b.logger.Warn("clearing second-level cache", zap.Error(err))
	}
	b.store.Init(ds)
}

// Get returns the value for key. A value found in the external cache counts
// as a hit; otherwise the store is read and the value is put in the cache.
// A failed put still returns the fetched value; the entry is simply not
// cached.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := b.cache.Get(key); ok {
		b.lastHit = true
		return value, nil
	}

	b.lastHit = false
	value, err := b.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := b.cache.Put(key, value); err != nil {
		b.logger.Warn("caching value", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

func (b *Backend) Count() int { return b.cache.Size() }

func (b *Backend) LastReadWasHit() bool { return b.lastHit }

// Close releases the external cache if it holds resources.
func (b *Backend) Close() error {
	if c, ok := b.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
