// Package zstdcodec provides a zstd compression codec.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/cachebench/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Option configures a Codec.
type Option func(*Codec)

// WithLevel sets the encoder level. Default is zstd.SpeedDefault.
func WithLevel(l zstd.EncoderLevel) Option {
	return func(c *Codec) { c.level = l }
}

// WithConcurrency sets how many goroutines the encoder and decoder may use.
// Default is 1; dataset files are small and read once.
func WithConcurrency(n int) Option {
	return func(c *Codec) { c.concurrency = n }
}

// Codec implements zstd compression.
type Codec struct {
	level       zstd.EncoderLevel
	concurrency int
}

// New returns a new zstd codec.
func New(opts ...Option) *Codec {
	c := &Codec{level: zstd.SpeedDefault, concurrency: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reader wraps r to decompress zstd data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(c.concurrency))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w,
		zstd.WithEncoderLevel(c.level),
		zstd.WithEncoderConcurrency(c.concurrency),
	)
}

// Extension returns "zst".
func (c *Codec) Extension() string {
	return "zst"
}
