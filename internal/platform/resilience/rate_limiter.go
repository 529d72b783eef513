package resilience

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit wait exceeds deadline")

// RateLimiter spaces outbound calls to a fixed per-minute budget.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns nil when limiting is disabled; a nil limiter never blocks.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg = NormalizeRateLimitConfig(cfg)
	if cfg.RequestsPerMinute == 0 {
		return nil
	}

	every := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(every), cfg.Burst)}
}

// Wait blocks until a token is available. It fails fast with ErrRateLimited
// when the wait would outlive ctx's deadline.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRateLimited
	}
	return nil
}
