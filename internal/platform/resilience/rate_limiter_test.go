package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewLimiter_DisabledIsNil(t *testing.T) {
	t.Parallel()

	if l := NewLimiter(RateLimitConfig{}); l != nil {
		t.Fatalf("expected nil limiter for empty config")
	}

	var l *Limiter
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("nil limiter should never block: %v", err)
	}
	if !l.Allow() {
		t.Fatalf("nil limiter should always allow")
	}
}

func TestLimiter_BurstThenBlocks(t *testing.T) {
	t.Parallel()

	l := NewLimiter(RateLimitConfig{Requests: 1, Window: time.Hour, Burst: 2})
	if !l.Allow() || !l.Allow() {
		t.Fatalf("expected burst of two")
	}
	if l.Allow() {
		t.Fatalf("expected bucket to be empty after burst")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatalf("expected wait to fail before the next token")
	} else if errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected cancellation: %v", err)
	}
}

func TestNewIntervalLimiter(t *testing.T) {
	t.Parallel()

	if NewIntervalLimiter(0) != nil {
		t.Fatalf("expected nil limiter for zero interval")
	}
	l := NewIntervalLimiter(time.Hour)
	if !l.Allow() || l.Allow() {
		t.Fatalf("expected exactly one immediate token")
	}
}
