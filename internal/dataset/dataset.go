// Package dataset provides the key/value sets used to seed backing stores
// and to derive the key list sampled by a scenario.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// Dataset maps unique keys to opaque values.
type Dataset map[string][]byte

// Empty returns a dataset with no entries.
func Empty() Dataset {
	return Dataset{}
}

// Len returns the number of entries.
func (d Dataset) Len() int {
	return len(d)
}

// Keys returns the dataset keys in sorted order.
// Sorting makes index-based sampling reproducible under a seeded source.
func (d Dataset) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a shallow copy of the dataset.
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ErrInvalidSize is returned when a negative dataset size is requested.
var ErrInvalidSize = errors.New("dataset: size must not be negative")

// Generate creates n entries keyed by random UUIDs, with the decimal entry
// index as value. If rnd is nil, crypto randomness is used; pass a seeded
// reader for reproducible keys.
func Generate(n int, rnd io.Reader) (Dataset, error) {
	if n < 0 {
		return nil, ErrInvalidSize
	}

	ds := make(Dataset, n)
	for i := 0; len(ds) < n; i++ {
		var (
			id  uuid.UUID
			err error
		)
		if rnd != nil {
			id, err = uuid.NewRandomFromReader(rnd)
		} else {
			id, err = uuid.NewRandom()
		}
		if err != nil {
			return nil, fmt.Errorf("generating key %d: %w", i, err)
		}
		ds[id.String()] = []byte(strconv.Itoa(len(ds)))
	}
	return ds, nil
}
