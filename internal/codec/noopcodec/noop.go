// Package noopcodec provides a pass-through codec. Use it when record
// payloads are already compressed or when plain-text files are wanted
// for debugging.
package noopcodec

import (
	"io"

	"github.com/tradekit/depot/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec passes data through unchanged.
type Codec struct{}

// New returns a new pass-through codec.
func New() *Codec {
	return &Codec{}
}

// Reader returns r wrapped as a ReadCloser.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(r), nil
}

// Writer returns w wrapped as a WriteCloser.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	if wc, ok := w.(io.WriteCloser); ok {
		return wc, nil
	}
	return &nopWriteCloser{w}, nil
}

// Extension returns empty string.
func (c *Codec) Extension() string {
	return ""
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
