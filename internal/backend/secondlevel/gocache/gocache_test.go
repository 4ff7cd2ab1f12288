package gocache

import (
	"testing"
	"time"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/backend/backendtest"
	"github.com/discochess/cachebench/internal/backend/secondlevel"
	"github.com/discochess/cachebench/internal/store"
)

func TestCache_Contract(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, s store.Store) backend.Backend {
		c := New(DefaultConfig())
		t.Cleanup(func() { c.Close() })
		return secondlevel.New(s, c)
	})
}

func TestCache_PutGet(t *testing.T) {
	c := New(DefaultConfig())
	t.Cleanup(func() { c.Close() })

	if _, ok := c.Get("k"); ok {
		t.Fatal("Get() on empty cache should miss")
	}
	if err := c.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Get(k) = %q, %v; want %q, true", got, ok, "v")
	}
	if got := c.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}

	if err := c.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if got := c.Size(); got != 0 {
		t.Errorf("Size() after RemoveAll = %d, want 0", got)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(Config{Expiration: 10 * time.Millisecond})
	if err := c.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Get() after expiration should miss")
	}
}

func TestCache_SweepsExpired(t *testing.T) {
	c := New(Config{Expiration: 5 * time.Millisecond, CleanupInterval: 5 * time.Millisecond})
	t.Cleanup(func() { c.Close() })

	if err := c.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.Size() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := c.Size(); got != 0 {
		t.Errorf("Size() = %d, want 0 after sweep", got)
	}
}

func TestCache_Close(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "with sweeper", cfg: DefaultConfig()},
		{name: "without sweeper", cfg: Config{Expiration: time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg)
			if err := c.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			select {
			case <-c.done:
			default:
				t.Error("sweeper still running after Close")
			}
			if err := c.Close(); err != nil {
				t.Errorf("second Close() error = %v", err)
			}
		})
	}
}
