// Package diskdepotfx provides an fx module for a disk-backed cache.
package diskdepotfx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tradekit/depot"
	"github.com/tradekit/depot/internal/stats"
	"github.com/tradekit/depot/internal/stats/logger"
)

// Config holds configuration for the disk-backed cache.
type Config struct {
	// CacheDir is the directory for persisted records.
	// Default is depot.DefaultCacheDir.
	CacheDir string

	// DefaultTTL applies to writes without an explicit TTL.
	// Default is depot.DefaultTTL.
	DefaultTTL time.Duration

	// MaxEntries bounds the in-memory entry count.
	// Default is depot.DefaultMaxEntries.
	MaxEntries int
}

// Module provides a disk-backed cache.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("diskdepot",
	fx.Provide(
		newStatsCollector,
		newCache,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("depot.stats"))
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache.
type Result struct {
	fx.Out

	Cache *depot.Cache
}

func newCache(p Params) (Result, error) {
	opts := []depot.Option{
		depot.WithStats(p.Collector),
		depot.WithLogger(p.Logger.Named("depot")),
	}
	if p.Config.CacheDir != "" {
		opts = append(opts, depot.WithCacheDir(p.Config.CacheDir))
	}
	if p.Config.DefaultTTL > 0 {
		opts = append(opts, depot.WithDefaultTTL(p.Config.DefaultTTL))
	}
	if p.Config.MaxEntries > 0 {
		opts = append(opts, depot.WithMaxEntries(p.Config.MaxEntries))
	}

	cache, err := depot.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{Cache: cache}, nil
}
