package diskstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tradekit/depot/internal/codec/noopcodec"
	"github.com/tradekit/depot/internal/codec/zstdcodec"
	"github.com/tradekit/depot/internal/record"
)

func TestStore_WriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zstdcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rec := record.New("quote:AAPL", []byte(`{"price":187.5}`), time.Now().Add(time.Hour), []string{"quote"})

	if err := s.Write(ctx, rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Load() returned %d records, want 1", len(records))
	}
	if records[0].Key != "quote:AAPL" {
		t.Errorf("Key = %q, want %q", records[0].Key, "quote:AAPL")
	}
	if string(records[0].Value) != `{"price":187.5}` {
		t.Errorf("Value = %q, want %q", records[0].Value, `{"price":187.5}`)
	}
}

func TestStore_WriteReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)
	if err := s.Write(ctx, record.New("k", []byte("old"), expiry, nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Write(ctx, record.New("k", []byte("new"), expiry, nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Load() returned %d records, want 1", len(records))
	}
	if string(records[0].Value) != "new" {
		t.Errorf("Value = %q, want %q", records[0].Value, "new")
	}
}

func TestStore_Delete(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Write(ctx, record.New("k", []byte("v"), time.Now().Add(time.Hour), nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	records, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Load() returned %d records after delete, want 0", len(records))
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete() of absent key error = %v", err)
	}
}

func TestStore_LoadSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Write(ctx, record.New("good", []byte("v"), time.Now().Add(time.Hour), nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Drop garbage alongside the good record.
	if err := os.WriteFile(filepath.Join(dir, "not-a-record"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "truncated"), []byte(`{"key":"x"`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	records, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 || records[0].Key != "good" {
		t.Errorf("Load() = %v, want only the good record", records)
	}
}

func TestStore_Clear(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if err := s.Write(ctx, record.New(key, []byte("v"), time.Now().Add(time.Hour), nil)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	records, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Load() returned %d records after clear, want 0", len(records))
	}

	// The directory itself survives.
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache directory removed by Clear: %v", err)
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestStore_HostileKeysStayInRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	key := "../../escape/attempt"
	if err := s.Write(ctx, record.New(key, []byte("v"), time.Now().Add(time.Hour), nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file inside root, got %d", len(entries))
	}
}
