package ristretto

import (
	"errors"
	"testing"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/backend/backendtest"
	"github.com/discochess/cachebench/internal/backend/secondlevel"
	"github.com/discochess/cachebench/internal/store"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_Contract(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, s store.Store) backend.Backend {
		return secondlevel.New(s, newCache(t))
	})
}

func TestCache_PutGet(t *testing.T) {
	c := newCache(t)

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
}

func TestCache_SizeResetsAfterRemoveAll(t *testing.T) {
	c := newCache(t)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(k, []byte(k)); err != nil {
			t.Fatalf("Put(%q) error = %v", k, err)
		}
	}

	if err := c.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if got := c.Size(); got != 0 {
		t.Errorf("Size() after RemoveAll = %d, want 0", got)
	}

	if err := c.Put("d", []byte("d")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got := c.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(Config{}) error = %v, want ErrInvalidConfig", err)
	}
}
