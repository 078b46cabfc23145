package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inat_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inat_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inat_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the backoff configuration for one error class.
type RetryConfig struct {
	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default backoff configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass returns the backoff configuration for an error class.
func RetryConfigForErrorClass(errorClass ErrorClass) RetryConfig {
	switch errorClass {
	case ErrorClassServer:
		return RetryConfig{
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassRateLimit:
		// 429: the API wants us to slow down well past the pacing interval
		return RetryConfig{
			InitialBackoff:    5 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ErrorClassNetwork:
		return RetryConfig{
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		}
	default:
		return DefaultRetryConfig()
	}
}

// attemptFunc performs one attempt and classifies its failure.
type attemptFunc func() (ErrorClass, error)

// retrier runs attempts with exponential backoff and jitter.
type retrier struct {
	maxAttempts int
	// configFor picks backoff settings for the class of the last failure.
	configFor func(ErrorClass) RetryConfig
	logger    zerolog.Logger
}

// do runs fn until it succeeds, fails with a non-retryable class, or
// maxAttempts is reached. With a single attempt the error is returned as is.
func (r retrier) do(ctx context.Context, fn attemptFunc) error {
	maxAttempts := r.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		lastErr    error
		lastClass  ErrorClass
		backoff    time.Duration
		prevClass  ErrorClass
		classKnown bool
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		errorClass, err := fn()
		if err == nil {
			if attempt > 1 {
				r.logger.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr, lastClass = err, errorClass

		if maxAttempts == 1 || !shouldRetry(errorClass) {
			return err
		}

		if attempt >= maxAttempts {
			break
		}

		cfg := r.configFor(errorClass)
		if !classKnown || errorClass != prevClass {
			backoff = cfg.InitialBackoff
		}
		prevClass, classKnown = errorClass, true

		retriesTotal.WithLabelValues(string(errorClass)).Inc()

		// ±20% jitter
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(jitter.Seconds())

		r.logger.Warn().
			Err(err).
			Str("error_class", string(errorClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	r.logger.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
}
