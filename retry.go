package glotta

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Retryable
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return false
}

// RetryableBackend wraps a Backend with retry logic on translation calls.
type RetryableBackend struct {
	backend Backend
	config  RetryConfig
}

// NewRetryableBackend creates a new backend with retry logic.
func NewRetryableBackend(backend Backend, cfg RetryConfig) *RetryableBackend {
	return &RetryableBackend{
		backend: backend,
		config:  cfg,
	}
}

// Translate implements Backend with retry logic.
func (b *RetryableBackend) Translate(ctx context.Context, req BackendRequest) (BackendResult, error) {
	return WithRetry(ctx, b.config, func() (BackendResult, error) {
		return b.backend.Translate(ctx, req)
	})
}

// DetectLanguage implements Backend with retry logic.
func (b *RetryableBackend) DetectLanguage(ctx context.Context, req DetectRequest) (Detection, error) {
	return WithRetry(ctx, b.config, func() (Detection, error) {
		return b.backend.DetectLanguage(ctx, req)
	})
}

// Info returns the wrapped backend's identity.
func (b *RetryableBackend) Info() BackendInfo {
	return b.backend.Info()
}

// Verify RetryableBackend implements Backend
var _ Backend = (*RetryableBackend)(nil)
