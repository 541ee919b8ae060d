package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/ratelimit"
)

func TestDisabledLimiterNeverBlocks(t *testing.T) {
	var nilLimiter *ratelimit.Limiter
	for _, l := range []*ratelimit.Limiter{nilLimiter, ratelimit.NewPerMinute(0)} {
		if l.Enabled() {
			t.Fatal("expected disabled limiter")
		}
		for i := 0; i < 100; i++ {
			if err := l.Wait(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}
}

func TestLimiter_RespectsContext(t *testing.T) {
	l := ratelimit.NewPerMinute(1)
	if !l.Enabled() {
		t.Fatal("expected enabled limiter")
	}

	// First token is available immediately
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected second wait to fail within the deadline")
	}
}
