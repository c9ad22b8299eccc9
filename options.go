package depot

import (
	"time"

	"go.uber.org/zap"

	"github.com/tradekit/depot/internal/codec"
	"github.com/tradekit/depot/internal/codec/zstdcodec"
	"github.com/tradekit/depot/internal/stats"
	"github.com/tradekit/depot/internal/store"
	"github.com/tradekit/depot/internal/store/diskstore"
)

// Defaults used when the corresponding option is not given.
const (
	// DefaultCacheDir is the directory used for persisted records.
	DefaultCacheDir = ".depot-cache"

	// DefaultTTL applies to Set calls with a non-positive TTL.
	DefaultTTL = 5 * time.Minute

	// DefaultMaxEntries bounds the in-memory entry count.
	DefaultMaxEntries = 1000
)

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the cache configuration.
type options struct {
	dir        string
	defaultTTL time.Duration
	capacity   int
	persist    bool
	codec      codec.Codec
	store      store.Store
	stats      stats.Collector
	logger     *zap.Logger
}

// defaultOptions returns the default configuration: persistent, zstd
// compressed records under DefaultCacheDir, DefaultTTL expiry, and
// DefaultMaxEntries capacity.
func defaultOptions() options {
	return options{
		dir:        DefaultCacheDir,
		defaultTTL: DefaultTTL,
		capacity:   DefaultMaxEntries,
		persist:    true,
		codec:      zstdcodec.New(),
		stats:      stats.NewNoop(),
		logger:     zap.NewNop(),
	}
}

// applyOptions resolves the option list into a configuration, creating
// the default disk store when persistence is enabled and no explicit
// store was injected.
func applyOptions(opts []Option) (options, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if !cfg.persist {
		cfg.store = nil
		cfg.dir = ""
		return cfg, nil
	}
	if cfg.store != nil {
		// An injected backend owns its own location.
		cfg.dir = ""
		return cfg, nil
	}

	st, err := diskstore.New(cfg.dir, cfg.codec, diskstore.WithLogger(cfg.logger))
	if err != nil {
		return options{}, err
	}
	cfg.store = st
	return cfg, nil
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithCacheDir sets the directory for persisted records.
// Default is DefaultCacheDir.
func WithCacheDir(dir string) Option {
	return optionFunc(func(o *options) {
		o.dir = dir
	})
}

// WithDefaultTTL sets the TTL applied when Set is called with a
// non-positive TTL. Default is DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return optionFunc(func(o *options) {
		o.defaultTTL = ttl
	})
}

// WithMaxEntries sets the maximum number of in-memory entries before LRU
// eviction. Default is DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return optionFunc(func(o *options) {
		o.capacity = n
	})
}

// WithPersistence enables or disables write-through persistence.
// Default is enabled.
func WithPersistence(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.persist = enabled
	})
}

// WithCodec sets the compression codec for persisted records.
// Default is zstd.
func WithCodec(c codec.Codec) Option {
	return optionFunc(func(o *options) {
		o.codec = c
	})
}

// WithStore injects a persistence backend directly, overriding
// WithCacheDir and WithCodec. Use this for the S3 or GCS backends, or a
// memory store in tests.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
