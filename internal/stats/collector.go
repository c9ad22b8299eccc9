// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Cache metrics.
	MetricCacheHits        = "depot_cache_hits_total"
	MetricCacheMisses      = "depot_cache_misses_total"
	MetricCacheWrites      = "depot_cache_writes_total"
	MetricCacheEvictions   = "depot_cache_evictions_total"
	MetricCacheExpirations = "depot_cache_expirations_total"
	MetricCacheEntries     = "depot_cache_entries"

	// Rate limiter metrics.
	MetricLimiterGrants   = "depot_limiter_grants_total"
	MetricLimiterDenials  = "depot_limiter_denials_total"
	MetricLimiterWaits    = "depot_limiter_waits_total"
	MetricLimiterWaiters  = "depot_limiter_waiters"
	MetricLimiterWaitTime = "depot_limiter_wait_seconds"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
