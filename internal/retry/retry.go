// Package retry runs an operation a bounded number of times with a delay
// between attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"surveydash/domain/core"
)

// Sleeper waits between attempts. Implementations must return early with the
// context error when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a timer
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy bounds retries. Multiplier scales the delay after each failed
// attempt; values below 1 keep the delay fixed.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	Sleeper     Sleeper
}

// DefaultPolicy is three attempts two seconds apart
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second, Sleeper: TimerSleeper{}}
}

// Do runs op until it succeeds or the attempts are used up. The delay is only
// applied between attempts. When every attempt fails the returned error wraps
// core.ErrRetriesExhausted and the last failure.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleeper := p.Sleeper
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}

	delay := p.Delay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleeper.Sleep(ctx, delay); err != nil {
			return err
		}
		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", core.ErrRetriesExhausted, attempts, lastErr)
}
