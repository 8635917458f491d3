package services

import (
	"context"
	"errors"
	"time"
)

// RetryConfig bounds the executor-local short-retry loop for transient errors.
type RetryConfig struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetry is the short-retry loop applied inside stage executors.
// These retries are invisible to the state machine.
var DefaultRetry = RetryConfig{
	Attempts:       3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
}

// Retry runs op, retrying while it returns an ErrTransient-classified error.
// Other error classes abort immediately; context cancellation wins over backoff.
func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.InitialBackoff
	if delay <= 0 {
		delay = DefaultRetry.InitialBackoff
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrTransient) || attempt == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; cfg.MaxBackoff <= 0 || next <= cfg.MaxBackoff {
			delay = next
		}
	}
	return lastErr
}
