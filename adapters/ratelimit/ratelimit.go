// Package ratelimit paces outbound requests to third-party services.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled one token at a time, so requests
// are spread evenly over the minute rather than released in a burst
type RateLimiter struct {
	tokens   chan struct{}
	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows requestsPerMinute requests with at most burst
// requests back to back
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		tokens: make(chan struct{}, burst),
		ticker: time.NewTicker(time.Minute / time.Duration(requestsPerMinute)),
		stop:   make(chan struct{}),
	}

	// Fill initial tokens
	for i := 0; i < burst; i++ {
		rl.tokens <- struct{}{}
	}

	go rl.refill()
	return rl
}

// Wait blocks until a request may be sent or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop releases the refill goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.ticker.Stop()
		close(rl.stop)
	})
}

func (rl *RateLimiter) refill() {
	for {
		select {
		case <-rl.stop:
			return
		case <-rl.ticker.C:
			select {
			case rl.tokens <- struct{}{}:
			default:
			}
		}
	}
}
