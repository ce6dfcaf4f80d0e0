package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff computes exponential delays between attempts.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	// Jitter is the fraction of the delay added or removed at random.
	Jitter float64
}

// Delay returns the wait before retry number n (starting at 1).
func (b Backoff) Delay(n int) time.Duration {
	if b.Initial <= 0 {
		return 0
	}
	factor := b.Factor
	if factor < 1 {
		factor = 2
	}

	d := float64(b.Initial)
	for i := 1; i < n; i++ {
		d *= factor
		if b.Max > 0 && d >= float64(b.Max) {
			d = float64(b.Max)
			break
		}
	}
	if b.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * b.Jitter * d
	}
	return time.Duration(max(d, 0))
}

// Retrier re-runs a call while it fails with a retryable error.
type Retrier struct {
	// Attempts is the total number of calls, including the first. Values
	// below one mean a single call.
	Attempts int
	Backoff  Backoff
	// Retryable decides which errors are retried. Nil means IsTransient.
	Retryable func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error)
}

// Retry calls fn until it succeeds, fails with a non-retryable error, runs
// out of attempts, or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, r Retrier, fn func(context.Context) (T, error)) (T, error) {
	retryable := r.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	attempts := max(1, r.Attempts)

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= attempts || ctx.Err() != nil || !retryable(err) {
			return zero, err
		}

		if r.OnRetry != nil {
			r.OnRetry(attempt, err)
		}
		if !sleep(ctx, r.Backoff.Delay(attempt)) {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// LogRetries returns an OnRetry hook that logs through zap.
func LogRetries(service string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying",
			zap.String("service", service),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
