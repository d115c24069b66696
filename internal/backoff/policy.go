package backoff

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Policy is a bounded retry: at most MaxAttempts calls, waiting
// Compute(Strategy, BaseDelay, MaxDelay, n) between them. Only errors for
// which Retryable returns true are retried.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Strategy    string
	Retryable   func(error) bool

	// Rand feeds the jitter strategies; nil uses the process-wide source.
	Rand *rand.Rand

	// OnRetry, when set, is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Default mirrors the retry used for every outbound call: 3 attempts,
// exponential from 2s capped at 10s.
func Default(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
		Strategy:    Exponential,
		Retryable:   retryable,
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. The last error from fn is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := p.DoCount(ctx, fn)
	return err
}

// DoCount is Do that also reports how many times fn ran.
func (p Policy) DoCount(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err == nil {
				err = cerr
			}
			return attempt - 1, err
		}
		err = fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return attempt, err
		}
		if p.Retryable == nil || !p.Retryable(err) || attempt == attempts {
			return attempt, err
		}
		delay := Compute(p.Strategy, p.BaseDelay, p.MaxDelay, attempt-1, p.Rand)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if serr := SleepOrDone(ctx, delay); serr != nil {
			return attempt, err
		}
	}
	return attempts, err
}

// SleepOrDone waits d or until ctx is done, whichever comes first.
func SleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
