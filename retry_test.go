package glotta

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	}
}

func TestWithRetry_SuccessFirstTry(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), fastRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("result=%q calls=%d", result, calls)
	}
}

func TestWithRetry_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), fastRetryConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", &BackendError{Message: "rate limited", Retryable: true}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if result != "ok" || calls != 3 {
		t.Errorf("result=%q calls=%d", result, calls)
	}
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastRetryConfig(), func() (string, error) {
		calls++
		return "", &BackendError{Message: "invalid request", Retryable: false}
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Non-retryable errors must not retry, got %d calls", calls)
	}
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	wantErr := &BackendError{Message: "still down", Retryable: true}
	_, err := WithRetry(context.Background(), fastRetryConfig(), func() (string, error) {
		calls++
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected last error back, got: %v", err)
	}
	// Initial attempt plus MaxRetries
	if calls != 4 {
		t.Errorf("Expected 4 calls, got %d", calls)
	}
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := WithRetry(ctx, fastRetryConfig(), func() (string, error) {
		calls++
		return "", &BackendError{Retryable: true}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context error, got: %v", err)
	}
	if calls != 0 {
		t.Errorf("Cancelled context must not run the function, got %d calls", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable backend", &BackendError{Retryable: true}, true},
		{"non-retryable backend", &BackendError{Retryable: false}, false},
		{"wrapped retryable", &TranslationError{Message: "x", Cause: &BackendError{Retryable: true}}, true},
		{"context canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryableBackend_Translate(t *testing.T) {
	be := newMockBackend()
	be.err = &BackendError{Message: "flaky", Retryable: true}
	retryable := NewRetryableBackend(be, fastRetryConfig())

	done := make(chan struct{})
	go func() {
		// Clear the error after the first couple of attempts
		time.Sleep(3 * time.Millisecond)
		be.mu.Lock()
		be.err = nil
		be.mu.Unlock()
		close(done)
	}()

	result, err := retryable.Translate(context.Background(), BackendRequest{Text: "Hello", To: "he"})
	<-done
	if err != nil {
		t.Fatalf("Expected eventual success, got: %v", err)
	}
	if result.Text != "שלום" {
		t.Errorf("Unexpected result %q", result.Text)
	}
	if be.calls() < 2 {
		t.Errorf("Expected at least 2 attempts, got %d", be.calls())
	}
}

func TestRetryableBackend_Info(t *testing.T) {
	retryable := NewRetryableBackend(newMockBackend(), DefaultRetryConfig())
	info := retryable.Info()
	if info.Provider != "mock" || info.Model != "mock-1" {
		t.Errorf("Info must pass through, got %+v", info)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.BaseDelay <= 0 || cfg.MaxDelay < cfg.BaseDelay {
		t.Errorf("Implausible delays: %+v", cfg)
	}
}
