// Package store defines the backing store interface that cache backends
// read through on a miss.
package store

import (
	"context"
	"errors"

	"github.com/discochess/cachebench/internal/dataset"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("store: key not found")

	// ErrTransientUnavailable is returned while the store is in an outage.
	// Callers may retry later; the store recovers on its own.
	ErrTransientUnavailable = errors.New("store: transiently unavailable")
)

// Store defines the interface for backing stores.
type Store interface {
	// Init replaces the store contents with ds.
	Init(ds dataset.Dataset)

	// Get returns the value stored for key.
	// Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Close releases any resources held by the store.
	Close() error
}
