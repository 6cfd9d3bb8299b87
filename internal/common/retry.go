package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rajveerkhosa/sscs/internal/service"
)

// ErrAttemptsExhausted indicates that all retry attempts have been used.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// WithRetry executes an operation with a fixed attempt count and a fixed
// inter-attempt delay. There is deliberately no backoff growth: the portal's
// tables either finish rendering within a few fixed waits or never will.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = 3 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if attempt == opts.MaxAttempts {
			break
		}

		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", opts.Delay,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.Delay):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, opts.MaxAttempts, lastErr)
}
