// Package gcsstore implements a Google Cloud Storage record persistence
// backend.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/tradekit/depot/internal/codec"
	"github.com/tradekit/depot/internal/record"
	"github.com/tradekit/depot/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a Google Cloud Storage record persistence backend. The cache's
// single-process ownership assumption extends to the bucket prefix.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	codec  codec.Codec
}

// New creates a new GCS store.
// The bucket must already exist.
// The codec handles compression/decompression of record objects.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: client.Bucket(bucketName),
		codec:  c,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// Write uploads the compressed record, replacing any previous object for
// the same key.
func (s *Store) Write(ctx context.Context, rec record.Record) error {
	data, err := rec.Encode()
	if err != nil {
		return err
	}

	obj := s.bucket.Object(s.objectKey(rec.Key))
	writer := obj.NewWriter(ctx)

	compressor, err := s.codec.Writer(writer)
	if err != nil {
		writer.Close()
		return fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := compressor.Write(data); err != nil {
		compressor.Close()
		writer.Close()
		return fmt.Errorf("compressing record: %w", err)
	}
	if err := compressor.Close(); err != nil {
		writer.Close()
		return fmt.Errorf("compressing record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Delete removes the record object for key. Deleting an absent key is not
// an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(s.objectKey(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("removing record: %w", err)
	}
	return nil
}

// Load lists and reads every record object under the prefix. Objects that
// cannot be read or decoded are skipped.
func (s *Store) Load(ctx context.Context) ([]record.Record, error) {
	var records []record.Record

	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix + "records/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}

		rec, err := s.readObject(ctx, attrs.Name)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear deletes every record object under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix + "records/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("listing records: %w", err)
		}

		if err := s.bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("removing record: %w", err)
		}
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) readObject(ctx context.Context, objectName string) (record.Record, error) {
	reader, err := s.bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return record.Record{}, fmt.Errorf("reading record: %w", err)
	}
	defer reader.Close()

	decompressor, err := s.codec.Reader(reader)
	if err != nil {
		return record.Record{}, fmt.Errorf("creating decompressor: %w", err)
	}
	defer decompressor.Close()

	data, err := io.ReadAll(decompressor)
	if err != nil {
		return record.Record{}, fmt.Errorf("decompressing record: %w", err)
	}

	return record.Decode(data)
}

// objectKey returns the full object key for a cache key.
func (s *Store) objectKey(key string) string {
	name := record.Filename(key)
	if ext := s.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return s.prefix + "records/" + name
}
