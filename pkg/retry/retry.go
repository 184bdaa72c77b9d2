package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
)

// Policy bounds how often an operation is repeated and how long to wait
// between tries. The zero value runs the operation exactly once.
type Policy struct {
	// Attempts is the total number of tries, the first included
	Attempts int
	Backoff  Backoff
	// Retryable decides whether a failure is worth another try; nil means
	// Retryable
	Retryable func(error) bool
	// OnRetry observes each failure that will be retried
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// StoragePolicy is used around gateway operations
func StoragePolicy(attempts int, log logger.Logger) Policy {
	return Policy{
		Attempts: attempts,
		Backoff:  DefaultExponential(),
		Logger:   log,
	}
}

// Retryable reports whether err may succeed when repeated. Cancellation
// never does; typed errors defer to their type; untyped errors are retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		return errs.IsRetryable(typed.Type)
	}
	return true
}

// Do runs op until it succeeds, fails permanently, runs out of attempts or
// ctx is cancelled while waiting
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = Retryable
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = DefaultExponential()
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 && p.Logger != nil {
				p.Logger.DebugWithFields("Operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= attempts {
			if attempts == 1 {
				return err
			}
			return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}

		delay := backoff.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if p.Logger != nil {
			p.Logger.WithError(err).WarnWithFields("Retrying operation", map[string]interface{}{
				"attempt":  attempt,
				"of":       attempts,
				"delay_ms": delay.Milliseconds(),
			})
		}
		if werr := Wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry abandoned: %w", werr)
		}
	}
}

// Value is Do for operations that produce a result
func Value[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}
