package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/cachebench/internal/codec"
	"github.com/discochess/cachebench/internal/codec/gzipcodec"
	"github.com/discochess/cachebench/internal/codec/noopcodec"
	"github.com/discochess/cachebench/internal/codec/zstdcodec"
)

var (
	// ErrDuplicateKey is returned when a dataset file repeats a key.
	ErrDuplicateKey = errors.New("dataset: duplicate key")

	// ErrEmptyKey is returned when a dataset file contains an empty key.
	ErrEmptyKey = errors.New("dataset: empty key")
)

// record is one JSONL line of a dataset file.
type record struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// CodecFor picks a codec from the file extension of path.
func CodecFor(path string) codec.Codec {
	return codec.Match(path, noopcodec.New(), zstdcodec.New(), gzipcodec.New())
}

// CompressionFor picks a codec from the extension of path like CodecFor,
// compressing at level with up to concurrency goroutines. Level is a zstd
// level (1-22) for .zst files and a compress/gzip level for .gz files.
// Zero level or concurrency keeps the codec default; both are ignored for
// uncompressed files.
func CompressionFor(path string, level, concurrency int) (codec.Codec, error) {
	c := CodecFor(path)
	switch c.Extension() {
	case "zst":
		var opts []zstdcodec.Option
		if level != 0 {
			opts = append(opts, zstdcodec.WithLevel(zstd.EncoderLevelFromZstd(level)))
		}
		if concurrency > 0 {
			opts = append(opts, zstdcodec.WithConcurrency(concurrency))
		}
		return zstdcodec.New(opts...), nil
	case "gz":
		if level == 0 {
			return c, nil
		}
		gz, err := gzipcodec.NewLevel(level)
		if err != nil {
			return nil, fmt.Errorf("gzip level %d: %w", level, err)
		}
		return gz, nil
	}
	return c, nil
}

// Write encodes ds as JSONL through c, one entry per line in key order.
func Write(w io.Writer, ds Dataset, c codec.Codec) error {
	cw, err := c.Writer(w)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}

	enc := json.NewEncoder(cw)
	for _, k := range ds.Keys() {
		if err := enc.Encode(record{Key: k, Value: ds[k]}); err != nil {
			cw.Close()
			return fmt.Errorf("encoding %q: %w", k, err)
		}
	}
	return cw.Close()
}

// Read decodes a JSONL dataset through c.
func Read(r io.Reader, c codec.Codec) (Dataset, error) {
	cr, err := c.Reader(r)
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer cr.Close()

	ds := Dataset{}
	dec := json.NewDecoder(cr)
	for line := 1; ; line++ {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return ds, nil
			}
			return nil, fmt.Errorf("decoding entry %d: %w", line, err)
		}
		if rec.Key == "" {
			return nil, fmt.Errorf("entry %d: %w", line, ErrEmptyKey)
		}
		if _, ok := ds[rec.Key]; ok {
			return nil, fmt.Errorf("entry %d %q: %w", line, rec.Key, ErrDuplicateKey)
		}
		ds[rec.Key] = rec.Value
	}
}

// WriteFile writes ds to path, compressed according to its extension.
func WriteFile(path string, ds Dataset) error {
	return WriteFileWith(path, ds, CodecFor(path))
}

// WriteFileWith writes ds to path through c.
func WriteFileWith(path string, ds Dataset, c codec.Codec) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	bw := bufio.NewWriter(f)
	if err := Write(bw, ds, c); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadFile reads a dataset from path, decompressed according to its extension.
func ReadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()
	return Read(bufio.NewReader(f), CodecFor(path))
}
