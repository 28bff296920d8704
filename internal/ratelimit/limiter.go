// Package ratelimit caps the request rate of the DNS-over-HTTPS backend.
package ratelimit

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// jitterFactor spreads waits by ±20% so bursts from concurrent jobs do not align.
const jitterFactor = 0.20

// Limiter wraps a token-bucket rate limiter and adds jitter to wait intervals.
type Limiter struct {
	inner *rate.Limiter
}

// New creates a Limiter with the given requests-per-second rate and burst capacity.
func New(rps float64, burst int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(rps), burst)}
}

// ForRate returns a Limiter for rps with a burst of one second's worth of
// requests, or nil when rps is not positive (no limit).
func ForRate(rps float64) *Limiter {
	if rps <= 0 {
		return nil
	}
	return New(rps, max(1, int(math.Ceil(rps))))
}

// Wait blocks until a token is available, adding jitter to the delay.
// Returns ctx.Err() if the context ends first.
func (l *Limiter) Wait(ctx context.Context) error {
	res := l.inner.Reserve()
	if !res.OK() {
		return ctx.Err()
	}

	delay := res.Delay()
	if delay <= 0 {
		return nil
	}

	jitter := time.Duration(float64(delay) * jitterFactor * (rand.Float64()*2 - 1)) //nolint:gosec // non-cryptographic random is fine for jitter
	delay = max(0, delay+jitter)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
