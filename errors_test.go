package glotta

import (
	"errors"
	"strings"
	"testing"
)

func TestTranslationError(t *testing.T) {
	cause := errors.New("underlying")
	err := &TranslationError{Message: "translation failed", Cause: cause}

	if !strings.Contains(err.Error(), "translation failed") {
		t.Errorf("Missing message: %v", err)
	}
	if !strings.Contains(err.Error(), "underlying") {
		t.Errorf("Missing cause: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}

	plain := &TranslationError{Message: "just a message"}
	if plain.Error() != "just a message" {
		t.Errorf("Unexpected message: %v", plain)
	}
	if plain.Unwrap() != nil {
		t.Error("Expected nil unwrap without cause")
	}
}

func TestBackendError(t *testing.T) {
	cause := errors.New("429 too many requests")
	err := &BackendError{Message: "rate limited", Cause: cause, Retryable: true}

	if !strings.Contains(err.Error(), "backend error") {
		t.Errorf("Missing prefix: %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Missing cause: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}

	var backendErr *BackendError
	wrapped := &TranslationError{Message: "outer", Cause: err}
	if !errors.As(wrapped, &backendErr) {
		t.Fatal("Expected errors.As through the wrapper")
	}
	if !backendErr.Retryable {
		t.Error("Retryable flag lost through unwrap")
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection refused")

	withKey := &StorageError{Op: "get", Key: "hash:abc:he", Cause: cause}
	if !strings.Contains(withKey.Error(), "storage get hash:abc:he") {
		t.Errorf("Unexpected format: %v", withKey)
	}

	withoutKey := &StorageError{Op: "getMany", Cause: cause}
	if !strings.Contains(withoutKey.Error(), "storage getMany") {
		t.Errorf("Unexpected format: %v", withoutKey)
	}
	if strings.Contains(withoutKey.Error(), "  ") {
		t.Errorf("Double space without key: %v", withoutKey)
	}
	if !errors.Is(withKey, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
}
