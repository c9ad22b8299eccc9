package depot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_PersistenceAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(WithCacheDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Set(ctx, "quote:AAPL", []byte(`{"price":187.5}`), time.Hour, "quote", "AAPL"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := first.Set(ctx, "news:AAPL", []byte(`[]`), time.Hour, "news", "AAPL"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := New(WithCacheDir(dir))
	if err != nil {
		t.Fatalf("New() on existing dir error = %v", err)
	}
	defer second.Close()

	got, ok := second.Get(ctx, "quote:AAPL")
	if !ok {
		t.Fatal("persisted entry absent after restart")
	}
	if string(got) != `{"price":187.5}` {
		t.Errorf("Get() = %q, want %q", got, `{"price":187.5}`)
	}

	// Tags survive the round trip.
	removed, err := second.InvalidateByTag(ctx, "AAPL")
	if err != nil {
		t.Fatalf("InvalidateByTag() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("InvalidateByTag() = %d, want 2", removed)
	}
}

func TestCache_BootstrapSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(WithCacheDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Set(ctx, "good", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "not-a-record"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	second, err := New(WithCacheDir(dir))
	if err != nil {
		t.Fatalf("New() with a corrupt file present error = %v", err)
	}
	defer second.Close()

	if _, ok := second.Get(ctx, "good"); !ok {
		t.Error("readable record was not loaded alongside the corrupt file")
	}
}

func TestCache_ExpiredRecordsDiscardedOnRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(WithCacheDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Set(ctx, "fresh", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := first.Set(ctx, "stale", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	second, err := New(WithCacheDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	if _, ok := second.Get(ctx, "stale"); ok {
		t.Error("expired record was materialized on restart")
	}
	if _, ok := second.Get(ctx, "fresh"); !ok {
		t.Error("fresh record was not loaded on restart")
	}

	if got := second.Stats().Entries; got != 1 {
		t.Errorf("Entries after restart = %d, want 1", got)
	}
}

func TestCache_CreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	cache, err := New(WithCacheDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer cache.Close()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("cache dir was not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}
