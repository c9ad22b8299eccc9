// Package codec provides compression for persisted cache records.
//
// Records are small JSON payloads written one file or object per key,
// so the codecs favor low per-call overhead over ratio.
package codec

import "io"

// Codec compresses and decompresses a record payload stream.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}
