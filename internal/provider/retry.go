package provider

import (
	"context"
	"time"

	"prism/internal/logging"
)

// RetryPolicy controls how generation attempts are repeated. A fixed
// delay between attempts, no backoff; media calls are slow enough that
// backoff adds little.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the provider defaults: three attempts with
// a one second pause between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second}
}

// Do runs fn until it succeeds, exhausts attempts, or hits a
// non-retryable failure. The last error is returned as-is so callers
// can classify it.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		kind := Classify(err)
		if !Retryable(kind) {
			return err
		}
		if attempt == attempts {
			break
		}
		logging.Warnf("%s attempt %d/%d failed (%s): %v", op, attempt, attempts, kind, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return err
}
