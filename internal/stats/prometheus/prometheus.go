// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tradekit/depot/internal/stats"
)

// help carries descriptions for the metrics the library emits. Metrics
// outside this table fall back to their name as help text.
var help = map[string]string{
	stats.MetricCacheHits:        "Cache lookups that returned a fresh entry.",
	stats.MetricCacheMisses:      "Cache lookups that found nothing usable.",
	stats.MetricCacheWrites:      "Entries written to the cache.",
	stats.MetricCacheEvictions:   "Entries removed from memory for any reason.",
	stats.MetricCacheExpirations: "Entries removed because their TTL elapsed.",
	stats.MetricCacheEntries:     "Entries currently held in memory.",
	stats.MetricLimiterGrants:    "Tokens granted to callers.",
	stats.MetricLimiterDenials:   "Non-blocking acquisitions that found no token.",
	stats.MetricLimiterWaits:     "Acquisitions that had to queue for a token.",
	stats.MetricLimiterWaiters:   "Callers currently queued for a token.",
	stats.MetricLimiterWaitTime:  "Time spent queued for a token, in seconds.",
}

// waitBuckets covers the realistic range of limiter queue delays, from
// sub-second at high rates up to minutes at single-digit rates.
var waitBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created lazily on first use and registered with the
// configured registry.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	c.counter(name).Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	c.gauge(name).Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.histogram(name).Observe(value)
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

func (c *Collector) counter(name string) prometheus.Counter {
	c.mu.RLock()
	counter, ok := c.counters[name]
	c.mu.RUnlock()
	if ok {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if counter, ok = c.counters[name]; ok {
		return counter
	}

	counter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: helpFor(name),
	})
	if existing, ok := reuseRegistered[prometheus.Counter](c.registry.Register(counter)); ok {
		counter = existing
	}
	c.counters[name] = counter
	return counter
}

func (c *Collector) gauge(name string) prometheus.Gauge {
	c.mu.RLock()
	gauge, ok := c.gauges[name]
	c.mu.RUnlock()
	if ok {
		return gauge
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gauge, ok = c.gauges[name]; ok {
		return gauge
	}

	gauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: helpFor(name),
	})
	if existing, ok := reuseRegistered[prometheus.Gauge](c.registry.Register(gauge)); ok {
		gauge = existing
	}
	c.gauges[name] = gauge
	return gauge
}

func (c *Collector) histogram(name string) prometheus.Histogram {
	c.mu.RLock()
	histogram, ok := c.histograms[name]
	c.mu.RUnlock()
	if ok {
		return histogram
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if histogram, ok = c.histograms[name]; ok {
		return histogram
	}

	buckets := prometheus.DefBuckets
	if name == stats.MetricLimiterWaitTime {
		buckets = waitBuckets
	}
	histogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    helpFor(name),
		Buckets: buckets,
	})
	if existing, ok := reuseRegistered[prometheus.Histogram](c.registry.Register(histogram)); ok {
		histogram = existing
	}
	c.histograms[name] = histogram
	return histogram
}

// reuseRegistered unwraps an AlreadyRegisteredError into the existing
// collector of type T. Any other registration error is swallowed: the
// unregistered metric still records, it just never gets scraped.
func reuseRegistered[T prometheus.Collector](err error) (T, bool) {
	var zero T
	if err == nil {
		return zero, false
	}
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, true
		}
	}
	return zero, false
}
