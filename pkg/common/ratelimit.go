package common

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides thread-safe rate limiting with dynamically adjustable limits.
// A nil *RateLimiter never blocks, which lets callers disable throttling without
// branching at every call site.
type RateLimiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewRateLimiter creates a RateLimiter with the specified requests per second (rps)
// and burst size. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the rate limiter allows an event or the context is canceled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.limiter.Wait(ctx)
}

// UpdateLimits dynamically adjusts the rate limiter's requests per second and burst size.
func (rl *RateLimiter) UpdateLimits(rps float64, burst int) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiter.SetLimit(rate.Limit(rps))
	rl.limiter.SetBurst(burst)
}

// UpdateFromQuota spreads the remaining request quota evenly across the time
// left until the quota window resets, keeping 10% in reserve. Incomplete
// quota data leaves the current limits untouched.
func (rl *RateLimiter) UpdateFromQuota(remaining, limit int, reset time.Time) {
	if remaining <= 0 || limit <= 0 || reset.IsZero() {
		return
	}
	window := time.Until(reset)
	if window <= 0 {
		return
	}

	rps := float64(remaining) / window.Seconds()
	burst := remaining / 10
	if burst < 1 {
		burst = 1
	}
	rl.UpdateLimits(rps*0.9, burst)
}

// Limit reports the current requests-per-second limit.
func (rl *RateLimiter) Limit() float64 {
	if rl == nil {
		return float64(rate.Inf)
	}
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return float64(rl.limiter.Limit())
}
