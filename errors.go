package glotta

import "fmt"

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// BackendError indicates an AI backend failure (API error, rate limit, etc.).
type BackendError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// StorageError indicates a cache storage operation failure.
type StorageError struct {
	Op    string // Storage operation ("get", "set", "touch", ...)
	Key   string // Cache key involved, if any
	Cause error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
