package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveydash/domain/core"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestDoSleepsOnlyBetweenAttempts(t *testing.T) {
	sleeper := &recordingSleeper{}
	policy := Policy{MaxAttempts: 3, Delay: 2 * time.Second, Sleeper: sleeper}

	boom := errors.New("service unavailable")
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRetriesExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeper.delays)
}

func TestDoStopsOnSuccess(t *testing.T) {
	sleeper := &recordingSleeper{}
	policy := Policy{MaxAttempts: 5, Delay: time.Second, Sleeper: sleeper}

	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, sleeper.delays, 1)
}

func TestDoMultiplierGrowsDelay(t *testing.T) {
	sleeper := &recordingSleeper{}
	policy := Policy{MaxAttempts: 4, Delay: 100 * time.Millisecond, Multiplier: 2, Sleeper: sleeper}

	_ = policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("down")
	})

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, sleeper.delays)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 3, Delay: time.Hour, Sleeper: SleeperFunc(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})}

	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrRetriesExhausted)
}

func TestTimerSleeperReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, TimerSleeper{}.Sleep(ctx, time.Hour), context.Canceled)
}
