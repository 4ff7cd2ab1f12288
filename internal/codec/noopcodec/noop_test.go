package noopcodec

import (
	"bytes"
	"io"
	"testing"
)

// closeRecorder records whether Close was called.
type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestCodec_PassThrough(t *testing.T) {
	var buf closeRecorder
	w, err := New().Writer(&buf)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	io.WriteString(w, "plain")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if buf.closed {
		t.Error("closing the writer closed the underlying stream")
	}

	r, err := New().Reader(&buf)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	got, _ := io.ReadAll(r)
	r.Close()
	if string(got) != "plain" {
		t.Errorf("read %q, want %q", got, "plain")
	}
	if buf.closed {
		t.Error("closing the reader closed the underlying stream")
	}
}
