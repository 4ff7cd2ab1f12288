// Package gocache adapts github.com/patrickmn/go-cache to the second-level
// cache interface. Entries expire after a fixed time and are removed by a
// background sweeper that Close stops.
package gocache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/discochess/cachebench/internal/backend/secondlevel"
)

// Compile-time check that Cache implements secondlevel.Cache.
var _ secondlevel.Cache = (*Cache)(nil)

// Config controls entry expiry.
type Config struct {
	// Expiration is the lifetime of an entry. Zero or less never expires.
	Expiration time.Duration

	// CleanupInterval is the sweep period. Zero or less disables it.
	CleanupInterval time.Duration
}

// DefaultConfig returns a two minute expiry swept every thirty seconds.
func DefaultConfig() Config {
	return Config{
		Expiration:      2 * time.Minute,
		CleanupInterval: 30 * time.Second,
	}
}

// Cache is a go-cache backed second-level cache.
type Cache struct {
	c *gocache.Cache

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a cache with the given expiry settings.
// Expired entries are swept every CleanupInterval until Close is called.
func New(cfg Config) *Cache {
	expiration := cfg.Expiration
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	// go-cache's own janitor can only be stopped by a finalizer.
	c := &Cache{
		c:    gocache.New(expiration, 0),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go c.sweep(cfg.CleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *Cache) sweep(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.c.DeleteExpired()
		}
	}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	if !ok {
		// Unexpected entry shape; drop it.
		c.c.Delete(key)
		return nil, false
	}
	return b, true
}

func (c *Cache) Put(key string, value []byte) error {
	c.c.Set(key, value, gocache.DefaultExpiration)
	return nil
}

func (c *Cache) RemoveAll() error {
	c.c.Flush()
	return nil
}

// Size returns the number of entries, including expired entries the
// janitor has not swept yet.
func (c *Cache) Size() int {
	return c.c.ItemCount()
}

// Close stops the sweeper and waits for it to exit. It is safe to call
// more than once.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}
