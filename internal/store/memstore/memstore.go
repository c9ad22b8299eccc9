// Package memstore provides an in-memory record store for testing the
// write-through persistence path without touching the filesystem.
package memstore

import (
	"context"
	"sync"

	"github.com/tradekit/depot/internal/record"
	"github.com/tradekit/depot/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory record store for testing.
type Store struct {
	mu      sync.RWMutex
	records map[string]record.Record
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]record.Record),
	}
}

// Seed inserts a record directly (for test setup, bypassing Write).
func (s *Store) Seed(rec record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
}

// Get returns the stored record for key (for test assertions).
func (s *Store) Get(key string) (record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Write stores rec, replacing any previous record for the same key.
func (s *Store) Write(ctx context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
	return nil
}

// Delete removes the record for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Load returns all stored records.
func (s *Store) Load(ctx context.Context) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]record.Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	return records, nil
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]record.Record)
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
