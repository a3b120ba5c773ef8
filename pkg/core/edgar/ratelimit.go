package edgar

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval applies when the configured rate is not positive.
const DefaultMinInterval = 200 * time.Millisecond

// RateLimiter spaces SEC requests at least MinInterval apart. SEC fair
// access allows 10 req/s per client; the default config uses 5.
type RateLimiter struct {
	MinInterval time.Duration
	limiter     *rate.Limiter
}

// NewRateLimiter allows perSecond requests per second with no burst.
func NewRateLimiter(perSecond float64) *RateLimiter {
	interval := DefaultMinInterval
	if perSecond > 0 {
		interval = time.Duration(float64(time.Second) / perSecond)
	}
	return &RateLimiter{
		MinInterval: interval,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
