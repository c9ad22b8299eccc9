// Package ratelimitfx provides an fx module for a provider rate limiter.
package ratelimitfx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tradekit/depot/internal/stats"
	"github.com/tradekit/depot/internal/stats/logger"
	"github.com/tradekit/depot/ratelimit"
)

// Config holds configuration for the rate limiter.
type Config struct {
	// CallsPerMinute is the sustained admission rate. Must be positive.
	CallsPerMinute float64
}

// Module provides a rate limiter.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("ratelimit",
	fx.Provide(
		newStatsCollector,
		newLimiter,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("ratelimit.stats"))
}

// Params holds dependencies for creating the limiter.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
}

// Result holds the provided limiter.
type Result struct {
	fx.Out

	Limiter *ratelimit.Limiter
}

func newLimiter(p Params) (Result, error) {
	limiter, err := ratelimit.New(p.Config.CallsPerMinute,
		ratelimit.WithStats(p.Collector),
		ratelimit.WithLogger(p.Logger.Named("ratelimit")),
	)
	if err != nil {
		return Result{}, err
	}
	return Result{Limiter: limiter}, nil
}
