// Package store defines the persistence backend interface for cache
// records. A backend holds one record per key and is assumed to be owned
// by a single process; concurrent access from multiple processes is
// undefined behavior.
package store

import (
	"context"

	"github.com/tradekit/depot/internal/record"
)

// Store defines the interface for record persistence backends.
// Implementations handle naming, layout, and compression internally.
type Store interface {
	// Write persists rec, replacing any previous record for the same key.
	Write(ctx context.Context, rec record.Record) error

	// Delete removes the record for key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Load returns every readable record in the backend. Unreadable or
	// corrupt records are skipped, never returned as errors.
	Load(ctx context.Context) ([]record.Record, error)

	// Clear removes all records from the backend.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
