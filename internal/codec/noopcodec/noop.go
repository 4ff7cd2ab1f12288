// Package noopcodec provides a codec that stores data uncompressed.
package noopcodec

import (
	"io"

	"github.com/discochess/cachebench/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = Codec{}

// Codec passes data through unchanged.
type Codec struct{}

// New returns a no-op codec.
func New() Codec {
	return Codec{}
}

// Reader returns r. Closing the result leaves r open.
func (Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Writer returns w. Closing the result leaves w open.
func (Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

// Extension returns the empty string.
func (Codec) Extension() string {
	return ""
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
