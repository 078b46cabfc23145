// Package ratelimit paces requests to the iNaturalist API.
//
// iNaturalist asks clients to stay at or below 60 requests per minute. A
// Pacer spaces successive requests by a fixed interval; the first request
// goes out immediately.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultInterval keeps a client at 60 requests per minute.
const DefaultInterval = 1 * time.Second

// Prometheus metrics for request pacing.
var (
	pacerWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inat_pacer_waits_total",
		Help: "Total number of requests that passed through the pacer",
	})

	pacerWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inat_pacer_wait_seconds",
		Help:    "Time spent waiting for the pacer before a request",
		Buckets: []float64{0.01, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Pacer spaces requests by a fixed interval.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
	logger   zerolog.Logger
}

// NewPacer creates a pacer. An interval <= 0 disables pacing.
func NewPacer(interval time.Duration, logger zerolog.Logger) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the configured spacing between requests.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next request may be sent or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	waited := time.Since(start)

	pacerWaitsTotal.Inc()
	pacerWaitSeconds.Observe(waited.Seconds())

	if waited > time.Millisecond {
		p.logger.Debug().
			Dur("waited", waited).
			Dur("interval", p.interval).
			Msg("Request paced")
	}
	return nil
}
