package strategy

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("connection reset")

func TestRetry(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	// Non-retryable error stops immediately
	permanent := errors.New("bad request")
	calls = 0
	err = retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("permanent: err %v, calls %d", err, calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return &retryableError{errTransient}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("transient: err %v, calls %d", err, calls)
	}

	// Exhausted attempts return the last error
	calls = 0
	err = retry(ctx, 2, time.Millisecond, func() error {
		calls++
		return &retryableError{errTransient}
	})
	if !errors.Is(err, errTransient) || calls != 2 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry(ctx, 3, time.Second, func() error {
		return &retryableError{errTransient}
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
