package pacing

import (
	"context"
	"time"
)

const defaultProbeInterval = 500 * time.Millisecond

// Probe polls check until it reports true or the budget is spent. The budget
// is measured in slept time, not wall time, so a fake Sleeper bounds it too.
// It returns false without error when the budget runs out.
func Probe(ctx context.Context, s Sleeper, budget, interval time.Duration, check func() (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	var slept time.Duration
	for {
		found, err := check()
		if err != nil || found {
			return found, err
		}
		if slept >= budget {
			return false, nil
		}
		step := interval
		if remaining := budget - slept; remaining < step {
			step = remaining
		}
		if err := s.Sleep(ctx, step); err != nil {
			return false, err
		}
		slept += step
	}
}
