package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff gives the wait after the n-th failed attempt (n starts at 1)
type Backoff interface {
	Delay(n int) time.Duration
}

// Exponential doubles (or multiplies by Factor) from Base up to Max, with
// a symmetric Jitter band expressed as a fraction of the delay
type Exponential struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// DefaultExponential waits 0.5s, 1s, 2s ... up to 10s with 10% jitter
func DefaultExponential() Exponential {
	return Exponential{Base: 500 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: 0.1}
}

func (e Exponential) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	factor := e.Factor
	if factor < 1 {
		factor = 2
	}
	d := float64(e.Base) * math.Pow(factor, float64(n-1))
	if e.Max > 0 && d > float64(e.Max) {
		d = float64(e.Max)
	}
	if e.Jitter > 0 {
		d += d * e.Jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(math.Max(d, 0))
}

// Constant waits the same duration after every failure
type Constant time.Duration

func (c Constant) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(c)
}

// Wait blocks for d or until ctx is done. A non-positive d only checks ctx.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
