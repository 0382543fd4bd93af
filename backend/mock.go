package backend

import (
	"context"
	"fmt"
	"sync"
)

// MockBackend is a mock AI backend for testing. It is safe for
// concurrent use, since coalescing tests exercise it from many
// goroutines at once.
type MockBackend struct {
	mu           sync.Mutex
	Translations map[string]string // Map of source text to translation
	SourceLang   string            // Reported source language (default: "en")
	Detections   map[string]Detection
	CallCount    int      // Number of times Translate was called
	DetectCount  int      // Number of times DetectLanguage was called
	LastRequest  *Request // Last translate request received
	Err          error    // When set, Translate and DetectLanguage fail with it
}

// NewMockBackend creates a new mock backend with default translations.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Translations: map[string]string{
			"Hello":                "Hola",
			"World":                "Mundo",
			"Hello World":          "Hola Mundo",
			"Welcome to our site.": "Bienvenido a nuestro sitio.",
		},
		SourceLang: "en",
	}
}

// Translate returns mock translations.
func (m *MockBackend) Translate(_ context.Context, req Request) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastRequest = &req

	if m.Err != nil {
		return Result{}, m.Err
	}

	if req.From != "" && req.From == req.To {
		return Result{Text: req.Text, From: req.From}, nil
	}

	from := m.SourceLang
	if from == "" {
		from = "en"
	}

	if translation, ok := m.Translations[req.Text]; ok {
		return Result{Text: translation, From: from}, nil
	}
	// Bracketed text for unknown translations
	return Result{Text: fmt.Sprintf("[%s]", req.Text), From: from}, nil
}

// DetectLanguage returns configured detections, defaulting to English.
func (m *MockBackend) DetectLanguage(_ context.Context, req DetectRequest) (Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DetectCount++

	if m.Err != nil {
		return Detection{}, m.Err
	}
	if d, ok := m.Detections[req.Text]; ok {
		return d, nil
	}
	return Detection{Language: "en", Confidence: 0.9}, nil
}

// Info identifies the mock backend.
func (m *MockBackend) Info() Info {
	return Info{Provider: "mock", Model: "mock-1"}
}

// Calls returns the number of Translate calls so far.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset resets the call counts and last request.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.DetectCount = 0
	m.LastRequest = nil
}

// Verify MockBackend implements Backend
var _ Backend = (*MockBackend)(nil)
