// Package backendtest provides a shared behavioral test suite that every
// backend.Backend implementation must pass.
package backendtest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/store"
	"github.com/discochess/cachebench/internal/store/simstore"
)

// Factory builds the backend under test around s.
type Factory func(t *testing.T, s store.Store) backend.Backend

// seed is the dataset every contract case starts from.
func seed() dataset.Dataset {
	return dataset.Dataset{"a": []byte("1"), "b": []byte("2"), "c": []byte("3")}
}

// newStore returns a fast simulated store with the toggler disabled.
func newStore(t *testing.T) *simstore.Store {
	t.Helper()
	s, err := simstore.New(simstore.Config{
		FailureDelay:        time.Millisecond,
		OnsetProbability:    0.01,
		RecoveryProbability: 0.2,
	})
	if err != nil {
		t.Fatalf("simstore.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Run executes the contract suite against backends built by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	t.Run("FirstReadMissesThenHits", func(t *testing.T) {
		b := newBackend(t, newStore(t))
		b.Init(seed())
		ctx := context.Background()

		got := mustGet(t, b, "a")
		if b.LastReadWasHit() {
			t.Error("first Get should be a miss")
		}
		if string(got) != "1" {
			t.Errorf("Get(a) = %q, want %q", got, "1")
		}

		for i := 0; i < 5; i++ {
			got, err := b.Get(ctx, "a")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !b.LastReadWasHit() {
				t.Errorf("Get #%d should be a hit", i+2)
			}
			if string(got) != "1" {
				t.Errorf("Get(a) = %q, want %q", got, "1")
			}
		}
	})

	t.Run("CountTracksDistinctReads", func(t *testing.T) {
		b := newBackend(t, newStore(t))
		b.Init(seed())

		if got := b.Count(); got != 0 {
			t.Errorf("Count() after Init = %d, want 0", got)
		}
		for _, k := range []string{"a", "b", "a", "c", "b"} {
			mustGet(t, b, k)
		}
		if got := b.Count(); got != 3 {
			t.Errorf("Count() = %d, want 3", got)
		}
	})

	t.Run("InitEmptyResetsCount", func(t *testing.T) {
		b := newBackend(t, newStore(t))
		b.Init(seed())
		mustGet(t, b, "a")
		mustGet(t, b, "b")

		b.Init(dataset.Empty())
		if got := b.Count(); got != 0 {
			t.Errorf("Count() after Init(empty) = %d, want 0", got)
		}
	})

	t.Run("InitClearsCache", func(t *testing.T) {
		b := newBackend(t, newStore(t))
		b.Init(seed())
		mustGet(t, b, "a")

		b.Init(dataset.Dataset{"a": []byte("42")})
		got := mustGet(t, b, "a")
		if b.LastReadWasHit() {
			t.Error("first Get after Init should be a miss")
		}
		if string(got) != "42" {
			t.Errorf("Get(a) = %q, want %q from the new dataset", got, "42")
		}
	})

	t.Run("FailureLeavesCacheUnchanged", func(t *testing.T) {
		s := newStore(t)
		b := newBackend(t, s)
		b.Init(seed())
		mustGet(t, b, "a")

		s.SetFailing(true)
		_, err := b.Get(context.Background(), "b")
		if !errors.Is(err, store.ErrTransientUnavailable) {
			t.Fatalf("Get() error = %v, want ErrTransientUnavailable", err)
		}
		if b.LastReadWasHit() {
			t.Error("failed Get should not be a hit")
		}
		if got := b.Count(); got != 1 {
			t.Errorf("Count() after failed Get = %d, want 1", got)
		}

		// Cached entries stay readable during an outage.
		if got := mustGet(t, b, "a"); string(got) != "1" || !b.LastReadWasHit() {
			t.Errorf("Get(a) during outage = %q (hit=%v), want cached %q", got, b.LastReadWasHit(), "1")
		}

		s.SetFailing(false)
		mustGet(t, b, "b")
		if b.LastReadWasHit() {
			t.Error("first successful Get(b) should be a miss")
		}
		if got := b.Count(); got != 2 {
			t.Errorf("Count() after recovery = %d, want 2", got)
		}
	})

	t.Run("NotFoundIsNotCached", func(t *testing.T) {
		b := newBackend(t, newStore(t))
		b.Init(seed())

		_, err := b.Get(context.Background(), "missing")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
		if got := b.Count(); got != 0 {
			t.Errorf("Count() = %d, want 0", got)
		}
	})

	t.Run("ReturnsStoreValues", func(t *testing.T) {
		ds, err := dataset.Generate(64, nil)
		if err != nil {
			t.Fatalf("dataset.Generate() error = %v", err)
		}
		b := newBackend(t, newStore(t))
		b.Init(ds)

		for pass := 0; pass < 2; pass++ {
			for k, want := range ds {
				if got := mustGet(t, b, k); !bytes.Equal(got, want) {
					t.Errorf("pass %d: Get(%s) = %q, want %q", pass, k, got, want)
				}
			}
		}
	})
}

func mustGet(t *testing.T, b backend.Backend, key string) []byte {
	t.Helper()
	v, err := b.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", key, err)
	}
	return v
}
