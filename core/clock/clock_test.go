package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Real{}.Sleep(ctx, time.Hour)
	require.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRealSleepZero(t *testing.T) {
	assert.NoError(t, Real{}.Sleep(context.Background(), 0))
	assert.NoError(t, Real{}.Sleep(context.Background(), time.Millisecond))
}

func TestVirtualSleepAdvances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := NewVirtual(start)
	require.NoError(t, v.Sleep(context.Background(), 5*time.Second))
	require.NoError(t, v.Sleep(context.Background(), 0))
	v.Advance(time.Minute)

	assert.Equal(t, start.Add(65*time.Second), v.Now())
	assert.Equal(t, []time.Duration{5 * time.Second, 0}, v.Sleeps())
	assert.Equal(t, 5*time.Second, v.Slept())

	v.Set(start)
	assert.Equal(t, start, v.Now())
}

func TestVirtualSleepCancelled(t *testing.T) {
	v := NewVirtual(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, v.Sleep(ctx, time.Second))
	assert.Empty(t, v.Sleeps())
}
