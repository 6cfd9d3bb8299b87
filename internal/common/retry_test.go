package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajveerkhosa/sscs/internal/service"
)

func TestWithRetryExhaustsFixedBudget(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return ErrFooterMissing
	}, service.RetryOptions{MaxAttempts: 3, Delay: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "exactly the configured attempt count, never more")
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, ErrFooterMissing,
		"the underlying failure survives the exhaustion wrap")
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return ErrFooterMissing
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 3, Delay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 2, calls, "no attempts after the first success")
}

func TestWithRetryDefaults(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return ErrFooterMissing
	}, service.RetryOptions{Delay: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "zero-valued options fall back to three attempts")
}

func TestWithRetryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return ErrFooterMissing
	}, service.RetryOptions{MaxAttempts: 3, Delay: time.Minute})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation during the delay ends the loop")
}
