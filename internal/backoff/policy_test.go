package backoff

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

func fastPolicy() Policy {
	p := Default(domain.IsTransient)
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 5 * time.Millisecond
	return p
}

func TestPolicySucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	n, err := fastPolicy().DoCount(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &domain.TransientServiceError{Service: "hyperbrowser", Status: 503, Err: errors.New("unavailable")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("DoCount: %v", err)
	}
	if n != 3 || calls != 3 {
		t.Fatalf("attempts = %d, calls = %d, want 3", n, calls)
	}
}

func TestPolicySurfacesTransientAfterExhaustion(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.TransientServiceError{Service: "openai", Status: 429, Err: errors.New("slow down")}
	})
	var te *domain.TransientServiceError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransientServiceError", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestPolicyDoesNotRetryInvalidRequest(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.InvalidRequestError{Service: "hyperbrowser", Status: 400, Message: "bad schema"}
	})
	var ie *domain.InvalidRequestError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestPolicyOnRetryDelays(t *testing.T) {
	p := Default(domain.IsTransient)
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 3 * time.Millisecond
	var delays []time.Duration
	p.OnRetry = func(_ int, _ error, d time.Duration) { delays = append(delays, d) }
	_ = p.Do(context.Background(), func(context.Context) error {
		return &domain.TransientServiceError{Service: "x", Err: errors.New("boom")}
	})
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", delays, want)
		}
	}
}

func TestPolicyJitterUsesRand(t *testing.T) {
	p := Default(domain.IsTransient)
	p.Strategy = ExpFullJitter
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 4 * time.Millisecond
	p.Rand = rand.New(rand.NewSource(11))
	var delays []time.Duration
	p.OnRetry = func(_ int, _ error, d time.Duration) { delays = append(delays, d) }
	_ = p.Do(context.Background(), func(context.Context) error {
		return &domain.TransientServiceError{Service: "x", Err: errors.New("boom")}
	})

	ref := rand.New(rand.NewSource(11))
	want := []time.Duration{
		Compute(ExpFullJitter, time.Millisecond, 4*time.Millisecond, 0, ref),
		Compute(ExpFullJitter, time.Millisecond, 4*time.Millisecond, 1, ref),
	}
	if len(delays) != 2 || delays[0] != want[0] || delays[1] != want[1] {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
}

func TestPolicyStopsWhenContextCancelled(t *testing.T) {
	p := Default(domain.IsTransient)
	p.BaseDelay = time.Hour
	p.MaxDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error {
			calls++
			return &domain.TransientServiceError{Service: "x", Err: errors.New("boom")}
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !domain.IsTransient(err) {
			t.Fatalf("err = %v, want last transient error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSleepOrDoneZero(t *testing.T) {
	if err := SleepOrDone(context.Background(), 0); err != nil {
		t.Fatalf("SleepOrDone(0) = %v", err)
	}
}
