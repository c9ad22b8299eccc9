// Package record defines the persisted form of a cache entry and the
// filename encoding used to store one record per key.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Record is the on-disk mirror of a cache entry. Value is an opaque
// payload; ExpiresAt is epoch milliseconds. The key is stored inside the
// record because the filename is a one-way hash of it.
type Record struct {
	Key       string   `json:"key"`
	Value     []byte   `json:"value"`
	ExpiresAt int64    `json:"expires_at_ms"`
	Tags      []string `json:"tags,omitempty"`
}

// New builds a record for key expiring at the given time.
func New(key string, value []byte, expiresAt time.Time, tags []string) Record {
	return Record{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt.UnixMilli(),
		Tags:      tags,
	}
}

// Expiry returns the expiry as a time.Time.
func (r Record) Expiry() time.Time {
	return time.UnixMilli(r.ExpiresAt)
}

// Expired reports whether the record has expired as of now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.Expiry())
}

// Encode serializes the record as JSON.
func (r Record) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return data, nil
}

// Decode parses a JSON-encoded record. A record without a key is rejected
// so that truncated or foreign files are skipped during bootstrap.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}
	if r.Key == "" {
		return Record{}, fmt.Errorf("decoding record: missing key")
	}
	return r, nil
}

// Filename returns the stable, filesystem-safe name for a key: the SHA-256
// hex digest of the key. Arbitrary key length and characters are tolerated
// and path traversal is impossible by construction.
func Filename(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
