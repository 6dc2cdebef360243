package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsConfiguredRate(t *testing.T) {
	limiter := New("openlibrary", 100)
	require.Equal(t, "openlibrary", limiter.Name())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
}

func TestLimiterWaitHonoursCancellation(t *testing.T) {
	limiter := New("slow", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Burst is already spent after the first Wait, so a cancelled context
	// must surface as an error instead of blocking.
	_ = limiter.Wait(context.Background())
	err := limiter.Wait(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "slow")
}

func TestSlotsCapsInFlight(t *testing.T) {
	slots := NewSlots(2)
	require.Equal(t, 2, slots.Cap())

	ctx := context.Background()
	require.NoError(t, slots.Acquire(ctx))
	require.NoError(t, slots.Acquire(ctx))

	full, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.Error(t, slots.Acquire(full), "third acquire must block until release")

	slots.Release()
	require.NoError(t, slots.Acquire(ctx))
}

func TestSlotsMinimumCapacity(t *testing.T) {
	slots := NewSlots(0)
	require.Equal(t, 1, slots.Cap())

	require.NoError(t, slots.Acquire(context.Background()))
	slots.Release()
}
