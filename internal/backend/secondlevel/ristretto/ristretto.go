// Package ristretto adapts github.com/dgraph-io/ristretto to the
// second-level cache interface. Ristretto admits entries asynchronously
// through a TinyLFU policy; Put waits for the write buffer to drain so a
// following Get can observe the entry, but admission may still reject it.
package ristretto

import (
	"errors"

	rc "github.com/dgraph-io/ristretto"

	"github.com/discochess/cachebench/internal/backend/secondlevel"
)

// Compile-time check that Cache implements secondlevel.Cache.
var _ secondlevel.Cache = (*Cache)(nil)

var (
	// ErrDropped is returned when ristretto drops a write under contention.
	ErrDropped = errors.New("ristretto: write dropped")

	// ErrInvalidConfig is returned by New for non-positive sizing.
	ErrInvalidConfig = errors.New("ristretto: invalid config")
)

// Config controls ristretto sizing. Every entry costs 1, so MaxCost is the
// maximum number of entries.
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultConfig returns a cache holding up to 10000 entries.
func DefaultConfig() Config {
	return Config{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
	}
}

// Cache is a ristretto backed second-level cache.
type Cache struct {
	c *rc.Cache

	// Metric baselines taken at the last RemoveAll.
	baseAdded   uint64
	baseEvicted uint64
}

// New creates a cache with the given configuration.
func New(cfg Config) (*Cache, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, ErrInvalidConfig
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	if !ok {
		c.c.Del(key)
		return nil, false
	}
	return b, true
}

func (c *Cache) Put(key string, value []byte) error {
	if !c.c.Set(key, value, 1) {
		return ErrDropped
	}
	c.c.Wait()
	return nil
}

func (c *Cache) RemoveAll() error {
	c.c.Clear()
	c.baseAdded = c.c.Metrics.KeysAdded()
	c.baseEvicted = c.c.Metrics.KeysEvicted()
	return nil
}

// Size returns the number of admitted entries still held, derived from the
// cache metrics since the last RemoveAll.
func (c *Cache) Size() int {
	m := c.c.Metrics
	added := m.KeysAdded() - c.baseAdded
	evicted := m.KeysEvicted() - c.baseEvicted
	return int(added) - int(evicted)
}

// Close stops the ristretto goroutines.
func (c *Cache) Close() error {
	c.c.Close()
	return nil
}
