package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound provider requests.
// A nil or disabled Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// NewPerMinute creates a limiter allowing perMinute requests per minute with a
// burst of one. perMinute <= 0 disables limiting.
func NewPerMinute(perMinute int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{}
	}
	every := time.Minute / time.Duration(perMinute)
	return &Limiter{limiter: rate.NewLimiter(rate.Every(every), 1)}
}

// Enabled reports whether requests are paced
func (l *Limiter) Enabled() bool {
	return l != nil && l.limiter != nil
}

// Wait blocks until a request may be sent or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limit: %w", err)
	}
	return nil
}
