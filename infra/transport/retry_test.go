package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, RetryConfig{MaxRetries: 5, BackoffMS: 50}, func() error {
		calls++
		cancel()
		return errors.New("boom")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPermanent(t *testing.T) {
	calls := 0
	base := errors.New("bad request")
	err := retry(context.Background(), RetryConfig{MaxRetries: 5, BackoffMS: 1}, func() error {
		calls++
		return permanent(base)
	})
	require.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)
}

func TestRetryWaitIsCapped(t *testing.T) {
	cfg := RetryConfig{}
	assert.Equal(t, 100*time.Millisecond, cfg.wait(0))
	assert.Equal(t, 800*time.Millisecond, cfg.wait(3))
	for _, attempt := range []int{9, 37, 64, 1000} {
		assert.Equal(t, maxBackoff, cfg.wait(attempt), "attempt %d", attempt)
	}
	assert.Equal(t, maxBackoff, RetryConfig{BackoffMS: 120_000}.wait(0))
}
