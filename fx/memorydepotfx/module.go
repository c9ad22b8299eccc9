// Package memorydepotfx provides an fx module for a memory-backed cache.
// Useful for testing.
package memorydepotfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tradekit/depot"
	"github.com/tradekit/depot/internal/stats"
	"github.com/tradekit/depot/internal/stats/logger"
	"github.com/tradekit/depot/internal/store/memstore"
)

// Module provides a memory-backed cache for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memorydepot",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newCache,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("depot.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache and store.
type Result struct {
	fx.Out

	Cache *depot.Cache
	Store *memstore.Store // Exposed for test setup
}

func newCache(p Params) (Result, error) {
	cache, err := depot.New(
		depot.WithStore(p.Store),
		depot.WithStats(p.Collector),
		depot.WithLogger(p.Logger.Named("depot")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{
		Cache: cache,
		Store: p.Store,
	}, nil
}
