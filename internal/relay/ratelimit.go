// internal/relay/ratelimit.go
package relay

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxPerWindow = 2
	DefaultWindow       = time.Second
)

// RateLimiter gates bundle submissions to the relay's accepted rate: at most
// maxPerWindow submissions per fixed window. Every submission path shares one
// limiter, created once per process and injected where needed.
//
// The check-then-increment sequence is guarded by a mutex because concurrent
// all-in-one submissions and the critical-bundle retry loop race on it.
type RateLimiter struct {
	mu           sync.Mutex
	maxPerWindow int
	window       time.Duration
	count        int
	windowStart  time.Time
}

// NewRateLimiter creates a limiter allowing maxPerWindow submissions per
// window. Non-positive arguments fall back to the defaults.
func NewRateLimiter(maxPerWindow int, window time.Duration) *RateLimiter {
	if maxPerWindow <= 0 {
		maxPerWindow = DefaultMaxPerWindow
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RateLimiter{
		maxPerWindow: maxPerWindow,
		window:       window,
		windowStart:  time.Now(),
	}
}

// Acquire blocks until a submission slot is available or ctx is done. It
// cannot fail otherwise, only delay.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	rl.mu.Lock()
	for {
		now := time.Now()
		if now.Sub(rl.windowStart) >= rl.window {
			rl.count = 0
			rl.windowStart = now
		}
		if rl.count < rl.maxPerWindow {
			rl.count++
			rl.mu.Unlock()
			return nil
		}

		wait := rl.window - now.Sub(rl.windowStart)
		rl.mu.Unlock()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		rl.mu.Lock()
	}
}

// Reset clears the current window. Intended for tests.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	rl.count = 0
	rl.windowStart = time.Now()
	rl.mu.Unlock()
}
