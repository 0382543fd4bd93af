package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZaguanLabs/glotta"
)

// chatServer returns an httptest server that answers every chat
// completion request with the given message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}))
}

func newTestOpenAIBackend(baseURL string) *OpenAIBackend {
	return NewOpenAIBackend(OpenAIConfig{APIKey: "test-key", BaseURL: baseURL + "/v1"})
}

func TestOpenAIBackend_Translate(t *testing.T) {
	srv := chatServer(t, `{"translation": "שלום", "from": "en"}`)
	defer srv.Close()

	b := newTestOpenAIBackend(srv.URL)
	result, err := b.Translate(context.Background(), Request{Text: "Hello", To: "he"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.Text != "שלום" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.From != "en" {
		t.Errorf("From = %q", result.From)
	}
}

func TestOpenAIBackend_TranslateSameLanguage(t *testing.T) {
	// No server: the from==to short circuit must not reach the API.
	b := NewOpenAIBackend(OpenAIConfig{APIKey: "test-key", BaseURL: "http://127.0.0.1:0"})
	result, err := b.Translate(context.Background(), Request{Text: "Hello", To: "en", From: "en"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.Text != "Hello" || result.From != "en" {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestOpenAIBackend_TranslateMalformedResponse(t *testing.T) {
	srv := chatServer(t, "not json at all")
	defer srv.Close()

	b := newTestOpenAIBackend(srv.URL)
	result, err := b.Translate(context.Background(), Request{Text: "Hello", To: "he"})
	if err != nil {
		t.Fatalf("Malformed content must not fail the request: %v", err)
	}
	if result.Text != "Hello" {
		t.Errorf("Expected original text back, got %q", result.Text)
	}
	if result.From != "en" {
		t.Errorf("Expected default source, got %q", result.From)
	}
}

func TestOpenAIBackend_TranslateMissingFrom(t *testing.T) {
	srv := chatServer(t, `{"translation": "Bonjour"}`)
	defer srv.Close()

	b := newTestOpenAIBackend(srv.URL)

	// Declared source wins when the model omits "from"
	result, err := b.Translate(context.Background(), Request{Text: "Hello", To: "fr", From: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if result.From != "en" {
		t.Errorf("Expected declared source, got %q", result.From)
	}

	// Without a declared source it falls back to English
	result, err = b.Translate(context.Background(), Request{Text: "Hello", To: "fr"})
	if err != nil {
		t.Fatal(err)
	}
	if result.From != "en" {
		t.Errorf("Expected fallback source, got %q", result.From)
	}
}

func TestOpenAIBackend_TranslateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "rate limit exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b := newTestOpenAIBackend(srv.URL)
	_, err := b.Translate(context.Background(), Request{Text: "Hello", To: "he"})
	if err == nil {
		t.Fatal("Expected API error")
	}
	var backendErr *glotta.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected BackendError, got %T", err)
	}
	if !backendErr.Retryable {
		t.Error("429 should be retryable")
	}
}

func TestOpenAIBackend_DetectLanguage(t *testing.T) {
	srv := chatServer(t, `{"language": "he", "confidence": 0.97}`)
	defer srv.Close()

	b := newTestOpenAIBackend(srv.URL)
	detection, err := b.DetectLanguage(context.Background(), DetectRequest{Text: "שלום"})
	if err != nil {
		t.Fatalf("DetectLanguage failed: %v", err)
	}
	if detection.Language != "he" || detection.Confidence != 0.97 {
		t.Errorf("Unexpected detection: %+v", detection)
	}
}

func TestOpenAIBackend_DetectLanguageMalformed(t *testing.T) {
	srv := chatServer(t, "garbage")
	defer srv.Close()

	b := newTestOpenAIBackend(srv.URL)
	_, err := b.DetectLanguage(context.Background(), DetectRequest{Text: "x"})
	if err == nil {
		t.Fatal("Expected error for malformed detection response")
	}
	var backendErr *glotta.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected BackendError, got %T", err)
	}
	if backendErr.Retryable {
		t.Error("Malformed detection is not retryable")
	}
}

func TestOpenAIBackend_Info(t *testing.T) {
	b := NewOpenAIBackend(OpenAIConfig{APIKey: "k"})
	info := b.Info()
	if info.Provider != "openai" {
		t.Errorf("Provider = %q", info.Provider)
	}
	if info.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model, got %q", info.Model)
	}

	b = NewOpenAIBackend(OpenAIConfig{APIKey: "k", Model: "gpt-4o"})
	if b.Info().Model != "gpt-4o" {
		t.Errorf("Model = %q", b.Info().Model)
	}
}

func TestBuildTranslatePrompt(t *testing.T) {
	prompt := buildTranslatePrompt(Request{Text: "Hello", To: "he"})
	if !strings.Contains(prompt, "Hebrew") {
		t.Error("Prompt should name the target language")
	}
	if !strings.Contains(prompt, "Detect the source language") {
		t.Error("Prompt should ask for detection without a declared source")
	}

	prompt = buildTranslatePrompt(Request{Text: "Hello", To: "he", From: "fr"})
	if !strings.Contains(prompt, "source language is French") {
		t.Error("Prompt should name the declared source language")
	}

	prompt = buildTranslatePrompt(Request{Text: "Hello", To: "he", Context: "real estate listings"})
	if !strings.Contains(prompt, "real estate listings") {
		t.Error("Prompt should include the context hint")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rate limit exceeded", true},
		{"request timeout", true},
		{"connection refused", true},
		{"status code 503", true},
		{"HTTP 429 Too Many Requests", true},
		{"invalid api key", false},
		{"model not found", false},
	}
	for _, tt := range tests {
		if got := isRetryableError(errors.New(tt.msg)); got != tt.want {
			t.Errorf("isRetryableError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestMockBackend(t *testing.T) {
	m := NewMockBackend()

	result, err := m.Translate(context.Background(), Request{Text: "Hello", To: "es"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Text != "Hola" || result.From != "en" {
		t.Errorf("Unexpected result: %+v", result)
	}

	result, err = m.Translate(context.Background(), Request{Text: "unknown text", To: "es"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Text != "[unknown text]" {
		t.Errorf("Expected bracketed fallback, got %q", result.Text)
	}

	if m.Calls() != 2 {
		t.Errorf("Calls = %d", m.Calls())
	}
	m.Reset()
	if m.Calls() != 0 {
		t.Errorf("Calls after Reset = %d", m.Calls())
	}
}
