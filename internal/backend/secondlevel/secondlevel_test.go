package secondlevel

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/backend/backendtest"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/store"
	"github.com/discochess/cachebench/internal/store/memstore"
)

// fakeCache is an in-memory Cache for testing.
type fakeCache struct {
	entries   map[string][]byte
	putErr    error
	removeErr error
	closed    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(key string) ([]byte, bool) {
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Put(key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[key] = value
	return nil
}

func (f *fakeCache) RemoveAll() error {
	clear(f.entries)
	return f.removeErr
}

func (f *fakeCache) Size() int { return len(f.entries) }

func (f *fakeCache) Close() error {
	f.closed = true
	return nil
}

func TestBackend_Contract(t *testing.T) {
	backendtest.Run(t, func(t *testing.T, s store.Store) backend.Backend {
		return New(s, newFakeCache())
	})
}

func TestBackend_PutFailureStillReturnsValue(t *testing.T) {
	c := newFakeCache()
	c.putErr = errors.New("cache full")
	mem := memstore.New()
	b := New(mem, c)
	b.Init(dataset.Dataset{"a": []byte("1")})

	for i := 0; i < 3; i++ {
		got, err := b.Get(context.Background(), "a")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "1" {
			t.Errorf("Get(a) = %q, want %q", got, "1")
		}
		if b.LastReadWasHit() {
			t.Error("uncached value should never hit")
		}
	}

	if got := mem.Reads(); got != 3 {
		t.Errorf("store reads = %d, want 3", got)
	}
	if got := b.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestBackend_InitToleratesRemoveFailure(t *testing.T) {
	c := newFakeCache()
	c.removeErr = errors.New("boom")
	b := New(memstore.New(), c)

	b.Init(dataset.Dataset{"a": []byte("1")})

	got, err := b.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "1" {
		t.Errorf("Get(a) = %q, want %q", got, "1")
	}
}

func TestBackend_Close(t *testing.T) {
	c := newFakeCache()
	b := New(memstore.New(), c)

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !c.closed {
		t.Error("Close() should close the external cache")
	}
}

func TestBackend_Name(t *testing.T) {
	if got := New(memstore.New(), newFakeCache()).Name(); got != Name {
		t.Errorf("Name() = %q, want %q", got, Name)
	}
}
