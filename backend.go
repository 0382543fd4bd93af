package glotta

import "context"

// Backend is the AI translation port. Implementations translate one
// string at a time and detect languages; batching and de-duplication are
// the engine's job.
type Backend interface {
	// Translate translates a single string. If req.From is set and equals
	// req.To, implementations should return the text unchanged without
	// calling the AI; the engine never issues such a request, but direct
	// callers might.
	Translate(ctx context.Context, req BackendRequest) (BackendResult, error)

	// DetectLanguage identifies the language of a text.
	DetectLanguage(ctx context.Context, req DetectRequest) (Detection, error)

	// Info identifies the backend for cache entries and analytics.
	Info() BackendInfo
}

// BackendRequest is a single-string translation request.
type BackendRequest struct {
	Text        string  // Text to translate
	To          string  // Target language code
	From        string  // Source language hint; empty means auto-detect
	Context     string  // Disambiguation context
	Temperature float32 // Sampling temperature
	Verbose     bool    // Enable adapter-level request/response dumping
}

// BackendResult is a single-string translation result.
type BackendResult struct {
	Text string // Translated text
	From string // Resolved (detected or confirmed) source language
}

// DetectRequest is a language detection request.
type DetectRequest struct {
	Text        string
	Temperature float32
}

// BackendInfo identifies a backend implementation.
type BackendInfo struct {
	Provider string // e.g. "openai"
	Model    string // e.g. "gpt-4o-mini"
}
