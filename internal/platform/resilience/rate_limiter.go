package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound calls with a token bucket. A nil *Limiter never blocks.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter returns nil when cfg disables limiting (no requests or no window).
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	every := cfg.Window / time.Duration(cfg.Requests)
	return &Limiter{bucket: rate.NewLimiter(rate.Every(every), burst)}
}

// NewIntervalLimiter allows one call per interval with no burst.
func NewIntervalLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		return nil
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.bucket.Wait(ctx)
}

// Allow takes a token without waiting.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.bucket.Allow()
}
