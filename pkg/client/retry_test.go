package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetrier(maxAttempts int) retrier {
	return retrier{
		maxAttempts: maxAttempts,
		configFor: func(ErrorClass) RetryConfig {
			return RetryConfig{
				InitialBackoff:    time.Millisecond,
				MaxBackoff:        2 * time.Millisecond,
				BackoffMultiplier: 2.0,
			}
		},
		logger: zerolog.Nop(),
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryConfigForErrorClass(t *testing.T) {
	tests := []struct {
		name            string
		errorClass      ErrorClass
		expectedInitial time.Duration
		expectedMax     time.Duration
	}{
		{"server error config", ErrorClassServer, 1 * time.Second, 10 * time.Second},
		{"rate limit config", ErrorClassRateLimit, 5 * time.Second, 60 * time.Second},
		{"network error config", ErrorClassNetwork, 2 * time.Second, 30 * time.Second},
		{"unknown error class uses default", "", 1 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := RetryConfigForErrorClass(tt.errorClass)

			if config.InitialBackoff != tt.expectedInitial {
				t.Errorf("InitialBackoff = %v, want %v", config.InitialBackoff, tt.expectedInitial)
			}
			if config.MaxBackoff != tt.expectedMax {
				t.Errorf("MaxBackoff = %v, want %v", config.MaxBackoff, tt.expectedMax)
			}
		})
	}
}

func TestRetrier_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetrier(3).do(context.Background(), func() (ErrorClass, error) {
		calls++
		return "", nil
	})

	if err != nil {
		t.Errorf("do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrier_SingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	errServer := &APIError{StatusCode: 500, ErrorClass: ErrorClassServer}
	calls := 0
	err := fastRetrier(1).do(context.Background(), func() (ErrorClass, error) {
		calls++
		return ErrorClassServer, errServer
	})

	if err != errServer {
		t.Errorf("do() error = %v, want the attempt's error as is", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrier_RetriesRetryableClasses(t *testing.T) {
	for _, class := range []ErrorClass{ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork} {
		t.Run(string(class), func(t *testing.T) {
			calls := 0
			err := fastRetrier(3).do(context.Background(), func() (ErrorClass, error) {
				calls++
				if calls < 3 {
					return class, errors.New("transient")
				}
				return "", nil
			})

			if err != nil {
				t.Errorf("do() error = %v", err)
			}
			if calls != 3 {
				t.Errorf("calls = %d, want 3", calls)
			}
		})
	}
}

func TestRetrier_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	errBad := errors.New("bad request")
	err := fastRetrier(5).do(context.Background(), func() (ErrorClass, error) {
		calls++
		return ErrorClassClient, errBad
	})

	if err != errBad {
		t.Errorf("do() error = %v, want %v", err, errBad)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrier_Exhausted(t *testing.T) {
	errTransient := errors.New("transient")
	calls := 0
	err := fastRetrier(3).do(context.Background(), func() (ErrorClass, error) {
		calls++
		return ErrorClassServer, errTransient
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("do() error = %v, want ErrRetryExhausted", err)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("do() error = %v, should wrap the last attempt error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetrier_ContextCancelledDuringBackoff(t *testing.T) {
	r := fastRetrier(3)
	r.configFor = func(ErrorClass) RetryConfig {
		return RetryConfig{InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffMultiplier: 2}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.do(ctx, func() (ErrorClass, error) {
		return ErrorClassNetwork, errors.New("down")
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("do() error = %v, want ErrContextCancelled", err)
	}
}
