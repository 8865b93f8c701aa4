package initialization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rozgarportal/api/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger("error", "json", "stderr")
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	calls := 0
	err := Retry(context.Background(), testLogger(), cfg, "flaky operation", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	wantErr := errors.New("persistent failure")
	calls := 0
	err := Retry(context.Background(), testLogger(), cfg, "doomed operation", func(ctx context.Context) error {
		calls++
		return wantErr
	})

	if err == nil {
		t.Fatal("Retry() error = nil, want failure")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Retry() error = %v, want wrapped %v", err, wantErr)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, testLogger(), cfg, "cancelled operation", func(ctx context.Context) error {
		calls++
		return errors.New("keep going")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 before cancellation", calls)
	}
}
