// Package zstdcodec provides a zstd compression codec. It is the
// default codec for persisted records.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/tradekit/depot/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd compression tuned for small record payloads:
// fastest level, single-goroutine encode and decode.
type Codec struct{}

// New returns a new zstd codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r to decompress zstd data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
}

// Extension returns "zst".
func (c *Codec) Extension() string {
	return "zst"
}
