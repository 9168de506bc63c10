package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
)

var errBoom = errors.New("boom")

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	var transitions []State
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange:    func(_ string, _, to State) { transitions = append(transitions, to) },
	})
	cb.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s, want open", cb.GetState())
	}
	called := false
	if err := cb.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Fatal("fn ran while circuit open")
	}

	now = now.Add(time.Minute)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("trial request: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %s, want closed", cb.GetState())
	}
	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreakerHalfOpenAllowsOneProbe(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.now = func() time.Time { return now }
	cb.Execute(func() error { return errBoom })
	now = now.Add(time.Second)

	release := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- cb.Execute(func() error { <-release; return nil }) }()
	time.Sleep(20 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second trial request err = %v, want ErrCircuitOpen", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first trial request: %v", err)
	}
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := Retry(context.Background(), "ok-on-third", cfg, func() error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(context.Background(), "always-fails", cfg, func() error { calls++; return errBoom })
	if !errors.Is(err, errBoom) || calls != 3 {
		t.Errorf("err=%v calls=%d", err, calls)
	}

	calls = 0
	cfg.Retryable = func(error) bool { return false }
	err = Retry(context.Background(), "permanent", cfg, func() error { calls++; return errBoom })
	if !errors.Is(err, errBoom) || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("err = %v, want DeadlineExceeded and ErrTimeout", err)
	}
	if err := WithTimeout(context.Background(), 0, "unbounded", func(context.Context) error { return nil }); err != nil {
		t.Errorf("zero timeout: %v", err)
	}
}

func TestWithTimeoutParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithTimeout(ctx, time.Second, "cancelled", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want Canceled", err)
	}
	if errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("parent cancellation reported as timeout: %v", err)
	}
}
