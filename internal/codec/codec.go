// Package codec provides compression and decompression for dataset files.
package codec

import (
	"io"
	"strings"
)

// Codec wraps streams with a compression format.
type Codec interface {
	// Reader wraps r to decompress data read from it. Closing the result
	// does not close r.
	Reader(r io.Reader) (io.ReadCloser, error)

	// Writer wraps w to compress data written to it. Close flushes the
	// compressor but does not close w.
	Writer(w io.Writer) (io.WriteCloser, error)

	// Extension returns the file extension without dot, e.g. "zst".
	// It is empty for uncompressed data.
	Extension() string
}

// Match returns the first codec whose extension ends path, or fallback
// if none does.
func Match(path string, fallback Codec, codecs ...Codec) Codec {
	for _, c := range codecs {
		if ext := c.Extension(); ext != "" && strings.HasSuffix(path, "."+ext) {
			return c
		}
	}
	return fallback
}
