package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "xwatch/pkg/errors"
)

func TestExponentialDelay(t *testing.T) {
	e := Exponential{Base: 100 * time.Millisecond, Max: time.Second, Factor: 2}

	tests := []struct {
		name string
		n    int
		want time.Duration
	}{
		{"before first failure", 0, 0},
		{"first", 1, 100 * time.Millisecond},
		{"second", 2, 200 * time.Millisecond},
		{"fourth", 4, 800 * time.Millisecond},
		{"capped", 5, time.Second},
		{"still capped", 9, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Delay(tt.n))
		})
	}
}

func TestExponentialJitterStaysInBand(t *testing.T) {
	e := Exponential{Base: 100 * time.Millisecond, Max: time.Second, Factor: 2, Jitter: 0.3}
	for i := 0; i < 50; i++ {
		d := e.Delay(2)
		assert.GreaterOrEqual(t, d, 140*time.Millisecond)
		assert.LessOrEqual(t, d, 260*time.Millisecond)
	}
}

func fast(attempts int) Policy {
	return Policy{Attempts: attempts, Backoff: Constant(time.Millisecond)}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retried []int
	p := fast(5)
	p.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("file is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoGivesUp(t *testing.T) {
	calls := 0
	sentinel := errors.New("disk full")

	err := fast(3).Do(context.Background(), func(context.Context) error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestZeroPolicyRunsOnce(t *testing.T) {
	calls := 0
	sentinel := errors.New("nope")
	err := Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return sentinel
	})
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDoDoesNotRetrySessionErrors(t *testing.T) {
	calls := 0
	err := fast(3).Do(context.Background(), func(context.Context) error {
		calls++
		return errs.New(errs.ErrorTypeSession, "no stored session")
	})

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeSession))
	assert.Equal(t, 1, calls)
}

func TestDoRetriesPersistenceErrors(t *testing.T) {
	calls := 0
	err := fast(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errs.Wrap(errs.ErrorTypePersistence, errors.New("locked"), "write users")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 100, Backoff: Constant(time.Hour)}

	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error { return errors.New("boom") })
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
}

func TestValue(t *testing.T) {
	calls := 0
	got, err := Value(context.Background(), fast(3), func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "partial", errors.New("busy")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(errs.New(errs.ErrorTypeFieldExtraction, "missing")))
	assert.True(t, Retryable(errs.New(errs.ErrorTypeBrowser, "crashed")))
	assert.True(t, Retryable(errors.New("plain")))
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
