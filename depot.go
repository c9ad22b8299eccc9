// Package depot provides a hybrid memory and disk cache for market-data
// provider responses, with per-entry TTL expiry, LRU eviction bounded by a
// configured capacity, tag and pattern invalidation, and optional
// write-through persistence that survives process restarts.
//
// Example usage:
//
//	cache, err := depot.New(
//	    depot.WithCacheDir("/var/cache/tradekit"),
//	    depot.WithDefaultTTL(depot.TTLQuote),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	quote, err := cache.GetOrSet(ctx, "quote:AAPL", depot.TTLQuote, []string{"quote"},
//	    func(ctx context.Context) ([]byte, error) {
//	        return provider.FetchQuote(ctx, "AAPL")
//	    })
package depot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tradekit/depot/internal/record"
	"github.com/tradekit/depot/internal/stats"
	"github.com/tradekit/depot/internal/store"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("depot: cache closed")
)

// Cache is a bounded key/value store with TTL expiry, LRU eviction, and
// optional write-through persistence. A Cache is safe for concurrent use
// by multiple goroutines.
//
// Values are opaque byte payloads. A nil value stored via Set is
// indistinguishable from a miss on Get; callers that need to cache
// "known empty" results should store a non-nil sentinel payload.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	store   store.Store // nil when persistence is disabled

	dir        string
	defaultTTL time.Duration
	capacity   int

	stats  stats.Collector
	logger *zap.Logger
	group  singleflight.Group
	closed atomic.Bool

	// now is swapped in tests for deterministic expiry.
	now func() time.Time

	// suppressDeletes skips per-entry store deletes while Clear purges,
	// because Clear wipes the backend wholesale afterwards.
	suppressDeletes bool
}

// New creates a Cache with the given options. With persistence enabled
// (the default), the cache directory is created if absent and every
// readable, unexpired record in it is loaded into memory before New
// returns; corrupt or expired records are skipped per-entry and never
// abort construction.
func New(opts ...Option) (*Cache, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		store:      cfg.store,
		dir:        cfg.dir,
		defaultTTL: cfg.defaultTTL,
		capacity:   cfg.capacity,
		stats:      cfg.stats,
		logger:     cfg.logger,
		now:        time.Now,
	}

	entries, err := lru.NewWithEvict(cfg.capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating entry store: %w", err)
	}
	c.entries = entries

	if c.store != nil {
		if err := c.bootstrap(context.Background()); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("cache initialized",
		zap.Int("capacity", c.capacity),
		zap.Duration("defaultTTL", c.defaultTTL),
		zap.Bool("persistent", c.store != nil),
		zap.String("dir", c.dir),
		zap.Int("bootstrapped", c.entries.Len()),
	)

	return c, nil
}

// Set stores value under key, expiring after ttl. A non-positive ttl uses
// the configured default. An existing entry for key is replaced and moved
// to the most-recently-used position; inserting a new key at capacity
// evicts the least-recently-used entry first. With persistence enabled
// the record is written through synchronously.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ent := &entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
		tags:      tags,
	}
	c.entries.Add(key, ent)
	c.stats.IncCounter(stats.MetricCacheWrites, 1)
	c.stats.SetGauge(stats.MetricCacheEntries, int64(c.entries.Len()))

	if c.store == nil {
		return nil
	}
	rec := record.New(key, value, ent.expiresAt, tags)
	if err := c.store.Write(ctx, rec); err != nil {
		return fmt.Errorf("persisting %q: %w", key, err)
	}
	return nil
}

// Get returns the value for key if present and not expired, marking the
// entry most-recently-used. An expired entry found on the way is removed
// from memory and the persistence backend.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(ctx, key)
}

func (c *Cache) getLocked(ctx context.Context, key string) ([]byte, bool) {
	ent, ok := c.entries.Get(key)
	if !ok {
		c.stats.IncCounter(stats.MetricCacheMisses, 1)
		return nil, false
	}
	if ent.expired(c.now()) {
		c.entries.Remove(key)
		c.stats.IncCounter(stats.MetricCacheExpirations, 1)
		c.stats.IncCounter(stats.MetricCacheMisses, 1)
		c.stats.SetGauge(stats.MetricCacheEntries, int64(c.entries.Len()))
		return nil, false
	}
	if ent.value == nil {
		// Inherited quirk: a stored nil reads as a miss.
		c.stats.IncCounter(stats.MetricCacheMisses, 1)
		return nil, false
	}
	c.stats.IncCounter(stats.MetricCacheHits, 1)
	return ent.value, true
}

// Has reports whether key holds a fresh entry. Unlike Get it does not
// change the entry's recency position.
func (c *Cache) Has(key string) bool {
	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries.Peek(key)
	return ok && !ent.expired(c.now()) && ent.value != nil
}

// Invalidate removes the entry for key from memory and the persistence
// backend. It reports whether the entry existed.
func (c *Cache) Invalidate(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existed := c.entries.Remove(key)
	if existed {
		c.stats.SetGauge(stats.MetricCacheEntries, int64(c.entries.Len()))
	}
	return existed, nil
}

// InvalidatePattern removes every entry whose key matches m and returns
// the removed count.
func (c *Cache) InvalidatePattern(ctx context.Context, m Matcher) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for _, key := range c.entries.Keys() {
		if !m.matches(key) {
			continue
		}
		if c.entries.Remove(key) {
			removed++
		}
	}
	if removed > 0 {
		c.stats.SetGauge(stats.MetricCacheEntries, int64(c.entries.Len()))
	}
	return removed, nil
}

// InvalidateByTag removes every entry whose tag set contains tag and
// returns the removed count. Untagged entries are never touched.
func (c *Cache) InvalidateByTag(ctx context.Context, tag string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for _, key := range c.entries.Keys() {
		ent, ok := c.entries.Peek(key)
		if !ok || !ent.hasTag(tag) {
			continue
		}
		if c.entries.Remove(key) {
			removed++
		}
	}
	if removed > 0 {
		c.stats.SetGauge(stats.MetricCacheEntries, int64(c.entries.Len()))
	}
	return removed, nil
}

// Clear removes all entries from memory and wipes the persistence
// backend.
func (c *Cache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.suppressDeletes = true
	c.entries.Purge()
	c.suppressDeletes = false
	c.stats.SetGauge(stats.MetricCacheEntries, 0)

	if c.store == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing persisted records: %w", err)
	}
	return nil
}

// Prune removes every currently-expired entry from memory and the
// persistence backend, leaving fresh entries untouched, and returns the
// removed count. This is the only operation that reclaims space for
// expired data without an access touching it first.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int
	for _, key := range c.entries.Keys() {
		ent, ok := c.entries.Peek(key)
		if !ok || !ent.expired(now) {
			continue
		}
		if c.entries.Remove(key) {
			removed++
		}
	}
	if removed > 0 {
		c.stats.IncCounter(stats.MetricCacheExpirations, int64(removed))
		c.stats.SetGauge(stats.MetricCacheEntries, int64(c.entries.Len()))
	}
	return removed, nil
}

// GetOrSet returns the cached value for key if fresh; otherwise it invokes
// factory, stores the result with the given ttl and tags, and returns it.
// Concurrent misses on the same key collapse into a single factory
// invocation whose result (or error) is shared by all callers. A factory
// error propagates unchanged and caches nothing.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, tags []string, factory func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller in the same flight may have populated the key.
		if value, ok := c.Get(ctx, key); ok {
			return value, nil
		}
		value, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, value, ttl, tags...); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// CacheStats describes the current shape of the cache.
type CacheStats struct {
	// Entries is the total number of entries in memory, fresh or not.
	Entries int
	// Valid is the number of unexpired entries.
	Valid int
	// Expired is the number of expired entries not yet pruned.
	Expired int
	// Capacity is the configured maximum number of memory entries.
	Capacity int
	// Persistent reports whether write-through persistence is enabled.
	Persistent bool
	// Dir is the configured cache directory ("" for non-disk backends).
	Dir string
}

// Stats returns a snapshot of entry counts and configuration.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := CacheStats{
		Entries:    c.entries.Len(),
		Capacity:   c.capacity,
		Persistent: c.store != nil,
		Dir:        c.dir,
	}
	for _, key := range c.entries.Keys() {
		ent, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		if ent.expired(now) {
			s.Expired++
		} else {
			s.Valid++
		}
	}
	return s
}

// Close releases the persistence backend. After Close, mutating calls
// return ErrClosed and lookups report absent.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			return fmt.Errorf("closing store: %w", err)
		}
	}
	return nil
}

// onEvict is invoked by the entry store for every removal: capacity
// eviction, explicit invalidation, expiry cleanup, and purge. It keeps the
// persistence backend in sync with memory.
func (c *Cache) onEvict(key string, ent *entry) {
	c.stats.IncCounter(stats.MetricCacheEvictions, 1)
	if c.store == nil || c.suppressDeletes {
		return
	}
	if err := c.store.Delete(context.Background(), key); err != nil {
		c.logger.Warn("removing persisted record",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// bootstrap pre-warms the memory store from the persistence backend.
// Expired records are discarded during load and removed from the backend,
// never materialized into memory.
func (c *Cache) bootstrap(ctx context.Context) error {
	records, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted records: %w", err)
	}

	now := c.now()
	var loaded, discarded int
	for _, rec := range records {
		if rec.Expired(now) {
			discarded++
			if err := c.store.Delete(ctx, rec.Key); err != nil {
				c.logger.Warn("removing expired record",
					zap.String("key", rec.Key),
					zap.Error(err),
				)
			}
			continue
		}
		// Loading past capacity falls back to the runtime LRU rule:
		// earliest-loaded records are evicted first.
		c.entries.Add(rec.Key, &entry{
			value:     rec.Value,
			expiresAt: rec.Expiry(),
			tags:      rec.Tags,
		})
		loaded++
	}

	c.stats.SetGauge(stats.MetricCacheEntries, int64(c.entries.Len()))
	if discarded > 0 {
		c.logger.Debug("discarded expired records during bootstrap",
			zap.Int("count", discarded),
		)
	}
	return nil
}
