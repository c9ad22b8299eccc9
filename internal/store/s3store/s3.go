// Package s3store implements an AWS S3 record persistence backend.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tradekit/depot/internal/codec"
	"github.com/tradekit/depot/internal/record"
	"github.com/tradekit/depot/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an AWS S3 record persistence backend. The cache's
// single-process ownership assumption extends to the bucket prefix.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	codec  codec.Codec
}

// New creates a new S3 store.
// The bucket must already exist.
// The codec handles compression/decompression of record objects.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s := &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucketName,
		codec:  c,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// Write uploads the compressed record, replacing any previous object for
// the same key.
func (s *Store) Write(ctx context.Context, rec record.Record) error {
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

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(rec.Key)),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Delete removes the record object for key. S3 deletes are idempotent, so
// deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("removing record: %w", err)
	}
	return nil
}

// Load lists and reads every record object under the prefix. Objects that
// cannot be read or decoded are skipped.
func (s *Store) Load(ctx context.Context) ([]record.Record, error) {
	var records []record.Record

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "records/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}
		for _, obj := range page.Contents {
			rec, err := s.readObject(ctx, aws.ToString(obj.Key))
			if err != nil {
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Clear deletes every record object under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "records/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing records: %w", err)
		}
		for _, obj := range page.Contents {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return fmt.Errorf("removing record: %w", err)
			}
		}
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

func (s *Store) readObject(ctx context.Context, objectKey string) (record.Record, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return record.Record{}, fmt.Errorf("record vanished: %w", err)
		}
		return record.Record{}, fmt.Errorf("reading record: %w", err)
	}
	defer result.Body.Close()

	decompressor, err := s.codec.Reader(result.Body)
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
