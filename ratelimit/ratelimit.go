// Package ratelimit provides a token-bucket rate limiter for outbound
// provider calls. The bucket holds up to callsPerMinute tokens, refills
// continuously at callsPerMinute tokens per minute, and retains
// fractional accrual between calls, so a limiter at 30 calls per minute
// admits a call every two seconds under sustained load rather than 30
// in a burst at each minute boundary (beyond the initial full bucket).
//
// Example usage:
//
//	limiter, err := ratelimit.New(60)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, symbol := range symbols {
//	    if err := limiter.Acquire(ctx); err != nil {
//	        return err
//	    }
//	    quote, err := provider.FetchQuote(ctx, symbol)
//	    ...
//	}
package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tradekit/depot/internal/stats"
)

// ErrInvalidRate indicates a non-positive calls-per-minute rate.
var ErrInvalidRate = errors.New("ratelimit: calls per minute must be positive")

// Limiter is a token-bucket rate limiter. It is safe for concurrent use
// by multiple goroutines. Blocked Acquire calls are served strictly in
// call order; TryAcquire never waits and may claim a token ahead of
// blocked callers.
type Limiter struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	last     time.Time

	waiters []*waiter
	timer   *time.Timer

	stats  stats.Collector
	logger *zap.Logger

	// now is swapped in tests for deterministic refill.
	now func() time.Time
}

// waiter is a blocked Acquire call. ready is closed when a token has
// been granted; canceled marks a waiter whose context expired so the
// dispatch loop skips it without disturbing the rest of the queue.
type waiter struct {
	ready    chan struct{}
	granted  bool
	canceled bool
}

// Option configures a Limiter.
type Option interface {
	apply(*options)
}

type options struct {
	stats  stats.Collector
	logger *zap.Logger
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

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

// New creates a Limiter that admits callsPerMinute calls per minute.
// The bucket starts full, so up to callsPerMinute calls may proceed
// immediately before refill pacing takes over. Rates below 1 are
// accepted but a full token never accrues, so such a limiter only
// serves its initial burst; pass at least 1 for a usable sustained
// rate.
func New(callsPerMinute float64, opts ...Option) (*Limiter, error) {
	if callsPerMinute <= 0 || math.IsNaN(callsPerMinute) || math.IsInf(callsPerMinute, 0) {
		return nil, ErrInvalidRate
	}

	cfg := options{
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	l := &Limiter{
		capacity: callsPerMinute,
		tokens:   callsPerMinute,
		stats:    cfg.stats,
		logger:   cfg.logger,
		now:      time.Now,
	}
	l.last = l.now()

	l.logger.Debug("limiter initialized",
		zap.Float64("callsPerMinute", callsPerMinute),
	)
	return l, nil
}

// TryAcquire consumes a token if at least one whole token is available
// and reports whether it did. It never blocks and does not queue behind
// blocked Acquire calls.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		l.tokens--
		l.stats.IncCounter(stats.MetricLimiterGrants, 1)
		return true
	}
	l.stats.IncCounter(stats.MetricLimiterDenials, 1)
	return false
}

// Available returns the number of whole tokens currently available.
// Fractional accrual is not counted.
func (l *Limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	return int(l.tokens)
}

// WaitTime returns how long until the next whole token accrues, or zero
// if one is available now. It does not account for queued waiters.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	return l.nextTokenLocked()
}

// Acquire blocks until a token is granted or ctx is done. Callers are
// served strictly in the order they called Acquire: a call finding no
// queue and a whole token available proceeds immediately, otherwise it
// joins the queue behind earlier waiters even if a token accrues in the
// meantime. On cancellation the waiter leaves the queue without
// disturbing the order of the others; a token granted in the same
// instant is handed back to the queue.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	l.refillLocked()
	if len(l.waiters) == 0 && l.tokens >= 1 {
		l.tokens--
		l.stats.IncCounter(stats.MetricLimiterGrants, 1)
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	l.waiters = append(l.waiters, w)
	l.stats.IncCounter(stats.MetricLimiterWaits, 1)
	l.stats.SetGauge(stats.MetricLimiterWaiters, int64(len(l.waiters)))
	l.scheduleLocked()
	l.mu.Unlock()

	start := time.Now()
	select {
	case <-w.ready:
		l.stats.ObserveHistogram(stats.MetricLimiterWaitTime, time.Since(start).Seconds())
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		if w.granted {
			// Dispatch won the race; return the token and pass it on.
			l.tokens = math.Min(l.capacity, l.tokens+1)
			l.dispatchLocked()
		} else {
			w.canceled = true
		}
		l.mu.Unlock()
		return ctx.Err()
	}
}

// Reset refills the bucket to capacity and restarts refill accounting
// from now. Blocked Acquire calls are not woken early; the pending
// dispatch timer grants to them on its next fire.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.capacity
	l.last = l.now()
	l.logger.Debug("limiter reset", zap.Float64("tokens", l.tokens))
}

// refillLocked accrues tokens for the time elapsed since the last
// refill, capped at capacity. Fractional accrual is retained.
func (l *Limiter) refillLocked() {
	now := l.now()
	if elapsed := now.Sub(l.last); elapsed > 0 {
		l.tokens = math.Min(l.capacity, l.tokens+elapsed.Minutes()*l.capacity)
	}
	l.last = now
}

// nextTokenLocked returns the time until the token count reaches one
// whole token at the configured refill rate, rounded to the nearest
// nanosecond. A timer firing a hair early is harmless: dispatch
// re-checks the balance and re-arms.
func (l *Limiter) nextTokenLocked() time.Duration {
	if l.tokens >= 1 {
		return 0
	}
	deficit := 1 - l.tokens
	return time.Duration(math.Round(deficit / l.capacity * float64(time.Minute)))
}

// scheduleLocked arms the dispatch timer for the moment the next whole
// token accrues. A single timer serves the whole queue; dispatch re-arms
// it while waiters remain.
func (l *Limiter) scheduleLocked() {
	d := l.nextTokenLocked()
	if l.timer == nil {
		l.timer = time.AfterFunc(d, l.dispatch)
		return
	}
	l.timer.Reset(d)
}

// dispatch is the timer callback.
func (l *Limiter) dispatch() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	l.dispatchLocked()
}

// dispatchLocked grants whole tokens to the head of the queue in call
// order, dropping canceled waiters as it reaches them, and re-arms the
// timer if waiters remain.
func (l *Limiter) dispatchLocked() {
	for len(l.waiters) > 0 {
		w := l.waiters[0]
		if w.canceled {
			l.waiters = l.waiters[1:]
			continue
		}
		if l.tokens < 1 {
			break
		}
		l.tokens--
		l.waiters = l.waiters[1:]
		w.granted = true
		close(w.ready)
		l.stats.IncCounter(stats.MetricLimiterGrants, 1)
	}
	l.stats.SetGauge(stats.MetricLimiterWaiters, int64(len(l.waiters)))
	if len(l.waiters) > 0 {
		l.scheduleLocked()
	}
}
