package glotta

import "time"

// CacheEntry is the persisted unit of translation cache storage.
type CacheEntry struct {
	ID             string    `json:"id"`                      // Cache key (hash or resource key)
	SourceText     string    `json:"source_text"`             // Original text
	SourceLanguage string    `json:"source_language"`         // Detected or declared source ("manual" for overrides)
	TargetLanguage string    `json:"target_language"`         // Target language code
	TranslatedText string    `json:"translated_text"`         // The translation
	ResourceType   string    `json:"resource_type,omitempty"` // Optional application-level resource scoping
	ResourceID     string    `json:"resource_id,omitempty"`
	Field          string    `json:"field,omitempty"`
	ManualOverride bool      `json:"manual_override"`    // True only for entries created via SetManualTranslation
	Provider       string    `json:"provider,omitempty"` // Backend that produced this ("manual" for overrides)
	Model          string    `json:"model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastUsedAt     time.Time `json:"last_used_at"` // Updated on every cache hit
}

// ResourceInfo identifies the application-level field a translation backs.
// All three parts must be present for resource-scoped caching; partial
// info falls back to content-hash keys.
type ResourceInfo struct {
	Type  string // Resource type (e.g., "property")
	ID    string // Resource identifier
	Field string // Field name on the resource
}

// Complete reports whether all resource parts are present.
func (r ResourceInfo) Complete() bool {
	return r.Type != "" && r.ID != "" && r.Field != ""
}

// CacheResult is the outcome of a cache lookup.
type CacheResult struct {
	Text           string // Cached translation
	From           string // Source language of the cached entry
	ManualOverride bool   // True if served from a manual override
}

// TranslateParams are the inputs to TranslateText.
type TranslateParams struct {
	Text    string // Text to translate
	To      string // Target language code (required)
	From    string // Source language hint (optional)
	Context string // Disambiguation context for the AI (optional)

	// Optional resource scoping. When all three are set the translation
	// is cached under a resource key and manual overrides apply.
	ResourceType string
	ResourceID   string
	Field        string
}

// resourceInfo collects the optional resource parts.
func (p TranslateParams) resourceInfo() ResourceInfo {
	return ResourceInfo{Type: p.ResourceType, ID: p.ResourceID, Field: p.Field}
}

// TranslateResult is the outcome of a translation request.
type TranslateResult struct {
	Text           string // Translated text (or original on short circuit)
	From           string // Resolved source language
	To             string // Target language
	Cached         bool   // True if served without a backend call
	ManualOverride bool   // True if served from a manual override
}

// BatchParams are the shared inputs to TranslateBatch.
type BatchParams struct {
	To      string // Target language code (required)
	From    string // Source language hint (optional)
	Context string // Disambiguation context (optional)
}

// ManualTranslation is the input to SetManualTranslation. Resource info
// is required: overrides live under resource keys only.
type ManualTranslation struct {
	Text           string // Source text
	TranslatedText string // The override
	To             string // Target language code
	ResourceType   string
	ResourceID     string
	Field          string
}

// ManualTranslationKey identifies an override for ClearManualTranslation.
type ManualTranslationKey struct {
	ResourceType string
	ResourceID   string
	Field        string
	To           string
}

// Stats summarizes cache contents.
type Stats struct {
	TotalEntries    int            `json:"total_entries"`
	ByLanguage      map[string]int `json:"by_language"`
	ManualOverrides int            `json:"manual_overrides"`
}

// Detection is the outcome of language detection.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// EventType classifies analytics events.
type EventType string

const (
	EventTranslation EventType = "translation"
	EventCacheHit    EventType = "cache_hit"
	EventDetection   EventType = "detection"
	EventError       EventType = "error"
)

// AnalyticsEvent is delivered to the optional analytics hook at defined
// transition points. Hooks never block or fail the main path.
type AnalyticsEvent struct {
	Type           EventType
	Text           string
	TranslatedText string
	From           string
	To             string
	Cached         bool
	Duration       time.Duration
	Provider       string
	Model          string
	ResourceType   string
	ResourceID     string
	Field          string
	Err            string
}

// AnalyticsHook observes translation activity. Panics are swallowed.
type AnalyticsHook func(AnalyticsEvent)

// ErrorHook receives suppressed best-effort failures (cache writes,
// touches) that never propagate to callers. Panics are swallowed.
type ErrorHook func(err error)
