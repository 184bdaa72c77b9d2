package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter bounds how often an action may happen
type Limiter interface {
	// Allow reports whether an action may happen now, consuming a token if so
	Allow() bool
	// Wait blocks until an action may happen or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its burst
	Reset()
}

// NavigationLimiter caps page navigations per minute across the whole
// browser session, independent of the randomized pacing delays.
type NavigationLimiter struct {
	perMinute int
	burst     int
	limiter   *rate.Limiter
}

// NewNavigationLimiter allows perMinute navigations per minute with the given
// burst. A non-positive perMinute disables limiting.
func NewNavigationLimiter(perMinute, burst int) *NavigationLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &NavigationLimiter{
		perMinute: perMinute,
		burst:     burst,
		limiter:   rate.NewLimiter(limitFor(perMinute), burst),
	}
}

func limitFor(perMinute int) rate.Limit {
	if perMinute <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(perMinute))
}

// Allow reports whether a navigation may start now
func (l *NavigationLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait blocks until the next navigation may start
func (l *NavigationLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Reset restores a full burst
func (l *NavigationLimiter) Reset() {
	l.limiter = rate.NewLimiter(limitFor(l.perMinute), l.burst)
}

// PerMinute returns the configured rate; zero means unlimited
func (l *NavigationLimiter) PerMinute() int {
	if l.perMinute < 0 {
		return 0
	}
	return l.perMinute
}
