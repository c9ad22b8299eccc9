// Package diskstore implements a disk-based filesystem persistence backend,
// one file per cached key.
package diskstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tradekit/depot/internal/codec"
	"github.com/tradekit/depot/internal/record"
	"github.com/tradekit/depot/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a disk-based filesystem persistence backend.
type Store struct {
	root   string
	codec  codec.Codec
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for per-record warnings during Load.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a disk store rooted at the given directory, creating the
// directory (recursively) if it does not exist. The codec handles
// compression of record files.
func New(root string, c codec.Codec, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	s := &Store{
		root:   root,
		codec:  c,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Write serializes rec to its per-key file, replacing any previous file.
func (s *Store) Write(ctx context.Context, rec record.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := rec.Encode()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w, err := s.codec.Writer(&buf)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("compressing record: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compressing record: %w", err)
	}

	if err := os.WriteFile(s.recordPath(rec.Key), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Delete removes the record file for key if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.Remove(s.recordPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing record: %w", err)
	}
	return nil
}

// Load reads every record file in the root directory. Files that cannot be
// read, decompressed, or decoded are logged and skipped so that one bad
// file never aborts a bootstrap.
func (s *Store) Load(ctx context.Context) ([]record.Record, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var records []record.Record
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if entry.IsDir() {
			continue
		}

		rec, err := s.readRecord(filepath.Join(s.root, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable cache record",
				zap.String("file", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear removes every record file from the root directory. The directory
// itself is kept.
func (s *Store) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing record: %w", err)
		}
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) readRecord(path string) (record.Record, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return record.Record{}, fmt.Errorf("reading record: %w", err)
	}

	r, err := s.codec.Reader(bytes.NewReader(compressed))
	if err != nil {
		return record.Record{}, fmt.Errorf("creating decompressor: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return record.Record{}, fmt.Errorf("decompressing record: %w", err)
	}

	return record.Decode(data)
}

// recordPath returns the filesystem path for a key.
func (s *Store) recordPath(key string) string {
	name := record.Filename(key)
	if ext := s.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return filepath.Join(s.root, name)
}
