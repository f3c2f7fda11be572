// Package retry implements status-code-aware exponential backoff for
// outbound HTTP calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrExhausted wraps the last attempt error once the retry budget is spent.
var ErrExhausted = errors.New("retries exhausted")

type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
	Multiplier      float64
}

// GenerativeConfig is the retry budget for the text-generation endpoint:
// 5 attempts total, sleeping 0.25s, 0.5s, 1s, 2s between them.
func GenerativeConfig() Config {
	return Config{
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxAttempts:     5,
		Multiplier:      2.0,
	}
}

// IsRetryableStatus reports whether an HTTP status is worth another attempt.
// Everything else fails the call immediately.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

// AttemptFunc performs one attempt and returns the HTTP status it observed.
// A nil error ends the loop; a non-retryable status propagates the error
// without further attempts.
type AttemptFunc func(ctx context.Context, attempt int) (statusCode int, err error)

// WithBackoffHTTP runs fn until it succeeds, returns a non-retryable error,
// or the attempt budget is exhausted.
func WithBackoffHTTP(ctx context.Context, cfg Config, fn AttemptFunc) error {
	var lastErr error
	interval := cfg.InitialInterval

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		statusCode, err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableStatus(statusCode) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		interval = time.Duration(float64(interval) * cfg.Multiplier)
		if interval > cfg.MaxInterval {
			interval = cfg.MaxInterval
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.MaxAttempts, lastErr)
}
