package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"prism/internal/logging"
)

func TestRetryEventuallySucceeds(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}
	calls := 0
	err := policy.Do(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}
	calls := 0
	blocked := NewError(KindBlocked, "gemini", "safety")
	err := policy.Do(context.Background(), "test", func() error {
		calls++
		return blocked
	})
	if !errors.Is(err, blocked) {
		t.Fatalf("expected blocked error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("blocked errors must not retry, got %d calls", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}
	calls := 0
	err := policy.Do(context.Background(), "test", func() error {
		calls++
		return errors.New("429 too many requests")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	logging.Disable()
	defer logging.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Minute}
	err := policy.Do(ctx, "test", func() error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
