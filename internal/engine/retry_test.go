package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() *RetryPolicy {
	return &RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryWithBackoff_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("throttled by upstream")
		}
		return nil
	}, IsTransientError)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_PermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	permanent := errors.New("access denied")
	err := RetryWithBackoff(context.Background(), fastPolicy(), func() error {
		attempts++
		return permanent
	}, IsTransientError)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(), func() error {
		attempts++
		return errors.New("service unavailable")
	}, IsTransientError)

	require.Error(t, err)
	assert.Equal(t, 4, attempts) // initial call plus three retries
	assert.Contains(t, err.Error(), "max retries")
}

func TestRetryWithBackoff_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithBackoff(ctx, &RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 10 * time.Second}, func() error {
		attempts++
		cancel()
		return errors.New("connection reset by peer")
	}, IsTransientError)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsTransientError(t *testing.T) {
	assert.True(t, IsTransientError(errors.New("Throttling: rate exceeded")))
	assert.True(t, IsTransientError(errors.New("503 Service Unavailable")))
	assert.True(t, IsTransientError(errors.New("read tcp: connection reset by peer")))

	assert.False(t, IsTransientError(nil))
	assert.False(t, IsTransientError(errors.New("access denied")))
	// Timeouts are fail-closed failures, never retried blindly.
	assert.False(t, IsTransientError(context.DeadlineExceeded))
}

func TestCalculateBackoff_CappedAtMax(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := calculateBackoff(attempt, time.Second, 5*time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}
