package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitConsumesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	ctx := context.Background()
	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(timeout), context.DeadlineExceeded)
}

func TestWaitRefills(t *testing.T) {
	rl := NewRateLimiter(6000, 1) // one token every 10ms
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	rl.Stop()
	rl.Stop()
}
