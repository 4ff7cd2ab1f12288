// Package bigcache adapts github.com/allegro/bigcache/v3 to the second-level
// cache interface. Entries share one global life window.
package bigcache

import (
	"context"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/discochess/cachebench/internal/backend/secondlevel"
)

// Compile-time check that Cache implements secondlevel.Cache.
var _ secondlevel.Cache = (*Cache)(nil)

// Config controls bigcache sizing and expiry.
type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	Shards             int // must be a power of two
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // 0 = unlimited
}

// DefaultConfig returns a small footprint suited to benchmark datasets.
func DefaultConfig() Config {
	return Config{
		LifeWindow:         2 * time.Minute,
		CleanWindow:        30 * time.Second,
		Shards:             64,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       64,
	}
}

// Cache is a bigcache backed second-level cache.
type Cache struct {
	c *bc.BigCache
}

// New creates a cache with the given configuration.
func New(cfg Config) (*Cache, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}

	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(key string) ([]byte, bool) {
	b, err := c.c.Get(key)
	if err != nil {
		// ErrEntryNotFound and read errors alike count as a miss.
		return nil, false
	}
	return b, true
}

func (c *Cache) Put(key string, value []byte) error {
	return c.c.Set(key, value)
}

func (c *Cache) RemoveAll() error {
	return c.c.Reset()
}

func (c *Cache) Size() int {
	return c.c.Len()
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() error {
	return c.c.Close()
}
