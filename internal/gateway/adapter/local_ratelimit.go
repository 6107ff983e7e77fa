package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// LocalRateLimiter is an in-process fixed-window limiter for single-replica
// deployments and local development. State is per process; a multi-replica
// deployment wants RedisRateLimiter instead.
type LocalRateLimiter struct {
	limit  int
	window time.Duration
	clock  domain.Clock

	mu          sync.Mutex
	counts      map[string]int
	windowStart time.Time
}

// NewLocalRateLimiter creates a limiter allowing limit requests per window
// for each key.
func NewLocalRateLimiter(limit int, window time.Duration, clock domain.Clock) *LocalRateLimiter {
	return &LocalRateLimiter{
		limit:       limit,
		window:      window,
		clock:       clock,
		counts:      make(map[string]int),
		windowStart: clock.Now(),
	}
}

// Allow reports whether the request for key fits in the current window.
// The error return is always nil; it exists to match the shared limiter.
func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Sub(l.windowStart) >= l.window {
		l.counts = make(map[string]int)
		l.windowStart = now
	}

	l.counts[key]++
	return l.counts[key] <= l.limit, nil
}
