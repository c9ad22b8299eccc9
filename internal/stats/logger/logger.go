// Package logger provides a stats collector that writes every metric
// update to a zap logger at debug level. It is meant for development
// and for fx wiring where a real metrics backend is not configured.
package logger

import (
	"go.uber.org/zap"

	"github.com/tradekit/depot/internal/stats"
)

// Collector implements stats.Collector by logging metric updates.
type Collector struct {
	logger *zap.Logger
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new logger-based collector.
// If logger is nil, a no-op logger is used.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger}
}

// IncCounter logs a counter increment.
func (c *Collector) IncCounter(name string, delta int64) {
	c.logger.Debug(name,
		zap.String("kind", "counter"),
		zap.Int64("delta", delta),
	)
}

// SetGauge logs a gauge value.
func (c *Collector) SetGauge(name string, value int64) {
	c.logger.Debug(name,
		zap.String("kind", "gauge"),
		zap.Int64("value", value),
	)
}

// ObserveHistogram logs a histogram observation.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug(name,
		zap.String("kind", "histogram"),
		zap.Float64("value", value),
	)
}
