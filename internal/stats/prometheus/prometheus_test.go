package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tradekit/depot/internal/stats"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, m := range metrics {
		if m.GetName() != name {
			continue
		}
		if len(m.GetMetric()) == 0 {
			t.Fatalf("metric %s has no samples", name)
		}
		sample := m.GetMetric()[0]
		if c := sample.GetCounter(); c != nil {
			return c.GetValue(), true
		}
		if g := sample.GetGauge(); g != nil {
			return g.GetValue(), true
		}
		if h := sample.GetHistogram(); h != nil {
			return float64(h.GetSampleCount()), true
		}
	}
	return 0, false
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c == nil {
		t.Fatal("New(nil) returned nil")
	}
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
}

func TestCollector_Counter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricCacheHits, 5)
	c.IncCounter(stats.MetricCacheHits, 3)

	val, ok := gatherValue(t, reg, stats.MetricCacheHits)
	if !ok {
		t.Fatalf("counter %s not found in registry", stats.MetricCacheHits)
	}
	if val != 8 {
		t.Errorf("counter value = %v, want 8", val)
	}
}

func TestCollector_Gauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricCacheEntries, 42)
	c.SetGauge(stats.MetricCacheEntries, 17)

	val, ok := gatherValue(t, reg, stats.MetricCacheEntries)
	if !ok {
		t.Fatalf("gauge %s not found in registry", stats.MetricCacheEntries)
	}
	if val != 17 {
		t.Errorf("gauge value = %v, want 17", val)
	}
}

func TestCollector_Histogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricLimiterWaitTime, 0.5)
	c.ObserveHistogram(stats.MetricLimiterWaitTime, 1.5)
	c.ObserveHistogram(stats.MetricLimiterWaitTime, 2.5)

	count, ok := gatherValue(t, reg, stats.MetricLimiterWaitTime)
	if !ok {
		t.Fatalf("histogram %s not found in registry", stats.MetricLimiterWaitTime)
	}
	if count != 3 {
		t.Errorf("histogram sample count = %v, want 3", count)
	}
}

func TestCollector_ReusesRegisteredMetric(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: stats.MetricLimiterGrants,
		Help: helpFor(stats.MetricLimiterGrants),
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter(stats.MetricLimiterGrants, 5)

	val, ok := gatherValue(t, reg, stats.MetricLimiterGrants)
	if !ok {
		t.Fatalf("counter %s not found in registry", stats.MetricLimiterGrants)
	}
	if val != 105 {
		t.Errorf("counter value = %v, want 105", val)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter(stats.MetricCacheWrites, 1)
				c.SetGauge(stats.MetricLimiterWaiters, int64(j))
			}
		}()
	}
	wg.Wait()

	val, ok := gatherValue(t, reg, stats.MetricCacheWrites)
	if !ok {
		t.Fatalf("counter %s not found in registry", stats.MetricCacheWrites)
	}
	if val != 1000 {
		t.Errorf("counter value = %v, want 1000", val)
	}
}
