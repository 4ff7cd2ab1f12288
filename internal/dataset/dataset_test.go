package dataset

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/discochess/cachebench/internal/codec/gzipcodec"
	"github.com/discochess/cachebench/internal/codec/noopcodec"
	"github.com/discochess/cachebench/internal/codec/zstdcodec"
)

func TestDataset_KeysSorted(t *testing.T) {
	ds := Dataset{"c": []byte("3"), "a": []byte("1"), "b": []byte("2")}

	got := ds.Keys()
	want := []string{"a", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestDataset_Clone(t *testing.T) {
	ds := Dataset{"a": []byte("1")}
	c := ds.Clone()
	delete(c, "a")

	if ds.Len() != 1 {
		t.Error("Clone() should not share the map with the original")
	}
}

func TestGenerate(t *testing.T) {
	ds, err := Generate(100, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ds.Len() != 100 {
		t.Errorf("Len() = %d, want 100", ds.Len())
	}
	for k, v := range ds {
		if len(k) != 36 {
			t.Errorf("key %q is not a UUID", k)
		}
		if len(v) == 0 {
			t.Errorf("value for %q is empty", k)
		}
	}
}

func TestGenerate_Seeded(t *testing.T) {
	seed := [32]byte{1, 2, 3}
	a, err := Generate(10, rand.NewChaCha8(seed))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(10, rand.NewChaCha8(seed))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !slices.Equal(a.Keys(), b.Keys()) {
		t.Error("same seed should produce the same keys")
	}
}

func TestGenerate_Invalid(t *testing.T) {
	if _, err := Generate(-1, nil); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Generate(-1) error = %v, want ErrInvalidSize", err)
	}
	ds, err := Generate(0, nil)
	if err != nil || ds.Len() != 0 {
		t.Errorf("Generate(0) = %v, %v; want empty dataset", ds, err)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	ds := Dataset{"a": []byte("1"), "b": []byte("2"), "c": []byte("3")}

	for _, tt := range []struct {
		name  string
		codec interface {
			Extension() string
		}
	}{
		{"noop", noopcodec.New()},
		{"gzip", gzipcodec.New()},
		{"zstd", zstdcodec.New()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := CodecFor("data.jsonl." + tt.codec.Extension())

			var buf bytes.Buffer
			if err := Write(&buf, ds, c); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := Read(&buf, c)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got.Len() != ds.Len() {
				t.Fatalf("Len() = %d, want %d", got.Len(), ds.Len())
			}
			for k, v := range ds {
				if !bytes.Equal(got[k], v) {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"duplicate", `{"key":"a","value":"MQ=="}` + "\n" + `{"key":"a","value":"Mg=="}`, ErrDuplicateKey},
		{"empty key", `{"key":"","value":"MQ=="}`, ErrEmptyKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), noopcodec.New())
			if !errors.Is(err, tt.want) {
				t.Errorf("Read() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Read(strings.NewReader("{not json"), noopcodec.New()); err == nil {
		t.Error("Read() should fail on malformed input")
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	ds, err := Generate(50, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, name := range []string{"data.jsonl", "data.jsonl.gz", "data.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteFile(path, ds); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !slices.Equal(got.Keys(), ds.Keys()) {
				t.Error("ReadFile() keys differ from written dataset")
			}
		})
	}
}

func TestCompressionFor(t *testing.T) {
	ds, err := Generate(50, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name        string
		file        string
		level       int
		concurrency int
		wantExt     string
		wantErr     bool
	}{
		{name: "zstd default", file: "data.jsonl.zst", wantExt: "zst"},
		{name: "zstd best", file: "data.jsonl.zst", level: 19, concurrency: 2, wantExt: "zst"},
		{name: "gzip default", file: "data.jsonl.gz", wantExt: "gz"},
		{name: "gzip best", file: "data.jsonl.gz", level: 9, wantExt: "gz"},
		{name: "gzip invalid level", file: "data.jsonl.gz", level: 42, wantErr: true},
		{name: "plain ignores level", file: "data.jsonl", level: 42, wantExt: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CompressionFor(tt.file, tt.level, tt.concurrency)
			if tt.wantErr {
				if err == nil {
					t.Fatal("CompressionFor() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CompressionFor() error = %v", err)
			}
			if got := c.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got, tt.wantExt)
			}

			path := filepath.Join(t.TempDir(), tt.file)
			if err := WriteFileWith(path, ds, c); err != nil {
				t.Fatalf("WriteFileWith() error = %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !slices.Equal(got.Keys(), ds.Keys()) {
				t.Error("ReadFile() keys differ from written dataset")
			}
		})
	}
}
