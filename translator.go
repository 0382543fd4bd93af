package glotta

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Translator is the translation orchestrator. It decides, per request,
// whether to serve from cache, join an in-flight backend call, or start a
// new one, and populates the cache with fresh results.
//
// Each Translator owns its own in-flight registry, so independent
// instances never cross-talk.
type Translator struct {
	store       Storage
	backend     Backend
	cache       *cacheLayer
	flights     *flightGroup[BackendResult]
	source      string  // default source language when nothing is known
	contextHint string  // global disambiguation context
	temperature float32 // backend sampling temperature
	verbose     bool
	analytics   AnalyticsHook
	errHook     ErrorHook
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithDefaultSource sets the source language assumed for empty or
// undetectable input (default: "en").
func WithDefaultSource(lang string) TranslatorOption {
	return func(t *Translator) {
		t.source = lang
	}
}

// WithContext sets a global disambiguation context applied when a request
// carries none of its own.
func WithContext(hint string) TranslatorOption {
	return func(t *Translator) {
		t.contextHint = hint
	}
}

// WithTemperature sets the backend sampling temperature (default: 0.3).
func WithTemperature(temp float32) TranslatorOption {
	return func(t *Translator) {
		t.temperature = temp
	}
}

// WithVerbose enables adapter-level request/response dumping.
func WithVerbose(v bool) TranslatorOption {
	return func(t *Translator) {
		t.verbose = v
	}
}

// WithAnalytics registers an observer for translation activity.
func WithAnalytics(hook AnalyticsHook) TranslatorOption {
	return func(t *Translator) {
		t.analytics = hook
	}
}

// WithErrorHook registers a receiver for suppressed best-effort failures.
func WithErrorHook(hook ErrorHook) TranslatorOption {
	return func(t *Translator) {
		t.errHook = hook
	}
}

// NewTranslator creates a Translator over the given storage and backend.
func NewTranslator(store Storage, backend Backend, opts ...TranslatorOption) *Translator {
	t := &Translator{
		store:       store,
		backend:     backend,
		flights:     newFlightGroup[BackendResult](),
		source:      "en",
		temperature: 0.3,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.cache = newCacheLayer(store, t.reportError)
	return t
}

// TranslateText translates a single string.
//
// Empty input and explicit from==to requests return immediately without
// touching the cache or the backend. Cache hits whose stored source
// language equals the target return the original text, since the content
// is already in the target language. Misses coalesce with any identical
// in-flight request before calling the backend; fresh results are written
// back fire-and-forget.
//
// Backend and cache-read failures propagate; callers implement their own
// fallback.
func (t *Translator) TranslateText(ctx context.Context, p TranslateParams) (*TranslateResult, error) {
	start := time.Now()

	if strings.TrimSpace(p.Text) == "" {
		from := p.From
		if from == "" {
			from = t.source
		}
		return &TranslateResult{Text: p.Text, From: from, To: p.To, Cached: true}, nil
	}

	if p.From != "" && p.From == p.To {
		return &TranslateResult{Text: p.Text, From: p.From, To: p.To, Cached: true}, nil
	}

	res := p.resourceInfo()
	cached, err := t.cache.lookup(ctx, p.Text, p.To, res)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		out := &TranslateResult{
			Text:           cached.Text,
			From:           cached.From,
			To:             p.To,
			Cached:         true,
			ManualOverride: cached.ManualOverride,
		}
		if cached.From == p.To {
			// Already in the target language; return the original text
			// rather than echoing a stored placeholder.
			out.Text = p.Text
		}
		t.notify(AnalyticsEvent{
			Type:           EventCacheHit,
			Text:           p.Text,
			TranslatedText: out.Text,
			From:           out.From,
			To:             p.To,
			Cached:         true,
			Duration:       time.Since(start),
			ResourceType:   p.ResourceType,
			ResourceID:     p.ResourceID,
			Field:          p.Field,
		})
		return out, nil
	}

	// Coalesce on (text-or-resource identity, target) only. Context and
	// source hints do not split flights: concurrent requests for the same
	// text and target share one backend call and its output.
	key := cacheKey(p.Text, p.To, res)
	result, _, err := t.flights.Do(key, func() (BackendResult, error) {
		return t.backend.Translate(ctx, BackendRequest{
			Text:        p.Text,
			To:          p.To,
			From:        p.From,
			Context:     t.requestContext(p.Context),
			Temperature: t.temperature,
			Verbose:     t.verbose,
		})
	})
	if err != nil {
		t.notify(AnalyticsEvent{
			Type:     EventError,
			Text:     p.Text,
			From:     p.From,
			To:       p.To,
			Duration: time.Since(start),
			Err:      err.Error(),
		})
		return nil, err
	}

	info := t.backend.Info()
	if result.From != p.To {
		// Write-through is best-effort; a racing reader may still miss
		// and re-translate, which simply overwrites.
		entry := t.cache.newEntry(p.Text, result.From, p.To, result.Text, res, info)
		bg := context.WithoutCancel(ctx)
		t.cache.detach(func() error {
			return t.cache.put(bg, entry)
		})
	}

	t.notify(AnalyticsEvent{
		Type:           EventTranslation,
		Text:           p.Text,
		TranslatedText: result.Text,
		From:           result.From,
		To:             p.To,
		Duration:       time.Since(start),
		Provider:       info.Provider,
		Model:          info.Model,
		ResourceType:   p.ResourceType,
		ResourceID:     p.ResourceID,
		Field:          p.Field,
	})
	return &TranslateResult{Text: result.Text, From: result.From, To: p.To, Cached: false}, nil
}

// TranslateBatch translates a list of strings, preserving input order.
//
// An explicit from==to request short-circuits entirely. Otherwise empty
// items pass through as-is, the rest resolve against the cache in one
// batched lookup, and the misses are de-duplicated by literal text so
// each unique string costs exactly one backend call. Results fan back
// out to every index sharing a text, and all fresh non-identity
// translations are written back in a single batched write.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, p BatchParams) ([]TranslateResult, error) {
	results := make([]TranslateResult, len(texts))

	if p.From != "" && p.From == p.To {
		for i, text := range texts {
			results[i] = TranslateResult{Text: text, From: p.From, To: p.To, Cached: true}
		}
		return results, nil
	}

	var lookupIdx []int
	var items []batchItem
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			from := p.From
			if from == "" {
				from = t.source
			}
			results[i] = TranslateResult{Text: text, From: from, To: p.To, Cached: true}
			continue
		}
		lookupIdx = append(lookupIdx, i)
		items = append(items, batchItem{Text: text})
	}

	outcomes, err := t.translateItems(ctx, items, p.From, p.Context, p.To)
	if err != nil {
		return nil, err
	}
	for j, i := range lookupIdx {
		out := outcomes[j]
		out.To = p.To
		results[i] = out
	}
	return results, nil
}

// translateItems is the shared batch engine behind TranslateBatch and the
// object field path: batched cache lookup, de-duplicated backend calls,
// fan-out, and one batched write-back for fresh non-identity results.
// Outcome order matches input order.
func (t *Translator) translateItems(ctx context.Context, items []batchItem, from, contextHint, to string) ([]TranslateResult, error) {
	outcomes := make([]TranslateResult, len(items))
	if len(items) == 0 {
		return outcomes, nil
	}
	start := time.Now()

	hits, err := t.cache.lookupBatch(ctx, items, to)
	if err != nil {
		return nil, err
	}

	missIdxByText := make(map[string][]int)
	var uniqueTexts []string
	for i, item := range items {
		if hit, ok := hits[i]; ok {
			out := TranslateResult{
				Text:           hit.Text,
				From:           hit.From,
				To:             to,
				Cached:         true,
				ManualOverride: hit.ManualOverride,
			}
			if hit.From == to {
				out.Text = item.Text
			}
			outcomes[i] = out
			continue
		}
		if _, seen := missIdxByText[item.Text]; !seen {
			uniqueTexts = append(uniqueTexts, item.Text)
		}
		missIdxByText[item.Text] = append(missIdxByText[item.Text], i)
	}
	if len(uniqueTexts) == 0 {
		return outcomes, nil
	}

	translated := make([]BackendResult, len(uniqueTexts))
	g, gctx := errgroup.WithContext(ctx)
	for ui, text := range uniqueTexts {
		ui, text := ui, text
		g.Go(func() error {
			result, _, err := t.flights.Do(HashKey(text, to), func() (BackendResult, error) {
				return t.backend.Translate(gctx, BackendRequest{
					Text:        text,
					To:          to,
					From:        from,
					Context:     t.requestContext(contextHint),
					Temperature: t.temperature,
					Verbose:     t.verbose,
				})
			})
			if err != nil {
				return err
			}
			translated[ui] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.notify(AnalyticsEvent{
			Type:     EventError,
			To:       to,
			From:     from,
			Duration: time.Since(start),
			Err:      err.Error(),
		})
		return nil, err
	}

	info := t.backend.Info()
	var entries []*CacheEntry
	for ui, text := range uniqueTexts {
		result := translated[ui]
		wroteHashEntry := false
		for _, i := range missIdxByText[text] {
			outcomes[i] = TranslateResult{Text: result.Text, From: result.From, To: to}
			if result.From == to {
				// Identity translation: never cached.
				continue
			}
			if items[i].Res.Complete() {
				entries = append(entries, t.cache.newEntry(text, result.From, to, result.Text, items[i].Res, info))
			} else if !wroteHashEntry {
				// Duplicate texts share one hash key; write it once.
				wroteHashEntry = true
				entries = append(entries, t.cache.newEntry(text, result.From, to, result.Text, ResourceInfo{}, info))
			}
		}
		t.notify(AnalyticsEvent{
			Type:           EventTranslation,
			Text:           text,
			TranslatedText: result.Text,
			From:           result.From,
			To:             to,
			Duration:       time.Since(start),
			Provider:       info.Provider,
			Model:          info.Model,
		})
	}
	if len(entries) > 0 {
		bg := context.WithoutCancel(ctx)
		t.cache.detach(func() error {
			return t.cache.putBatch(bg, entries)
		})
	}
	return outcomes, nil
}

// DetectLanguage identifies the language of a text. Detection runs at
// temperature 0 for determinism and never touches the cache.
func (t *Translator) DetectLanguage(ctx context.Context, text string) (*Detection, error) {
	start := time.Now()
	detection, err := t.backend.DetectLanguage(ctx, DetectRequest{Text: text, Temperature: 0})
	if err != nil {
		t.notify(AnalyticsEvent{
			Type:     EventError,
			Text:     text,
			Duration: time.Since(start),
			Err:      err.Error(),
		})
		return nil, err
	}
	info := t.backend.Info()
	t.notify(AnalyticsEvent{
		Type:     EventDetection,
		Text:     text,
		From:     detection.Language,
		Duration: time.Since(start),
		Provider: info.Provider,
		Model:    info.Model,
	})
	return &detection, nil
}

// SetManualTranslation stores a manual override under the resource key.
// Resource info is required; the previous entry at that key, manual or
// not, is overwritten.
func (t *Translator) SetManualTranslation(ctx context.Context, m ManualTranslation) error {
	res := ResourceInfo{Type: m.ResourceType, ID: m.ResourceID, Field: m.Field}
	if !res.Complete() {
		return &TranslationError{Message: "manual translation requires resourceType, resourceId and field"}
	}
	return t.cache.setManual(ctx, m)
}

// ClearManualTranslation deletes exactly the override's resource key.
// A hash-key entry for the same text survives and serves later lookups.
func (t *Translator) ClearManualTranslation(ctx context.Context, k ManualTranslationKey) error {
	return t.cache.clearManual(ctx, k)
}

// ClearCache removes cached translations. With an empty language the
// whole cache is cleared; otherwise only entries targeting that language.
// Returns the number of entries removed.
func (t *Translator) ClearCache(ctx context.Context, targetLanguage string) (int, error) {
	if targetLanguage == "" {
		n, err := t.store.DeleteAll(ctx)
		if err != nil {
			return 0, &StorageError{Op: "deleteAll", Cause: err}
		}
		return n, nil
	}
	n, err := t.store.DeleteByLanguage(ctx, targetLanguage)
	if err != nil {
		return 0, &StorageError{Op: "deleteByLanguage", Cause: err}
	}
	return n, nil
}

// ClearResourceCache removes all cached translations for one resource,
// across fields and languages. Hash-key entries are untouched.
func (t *Translator) ClearResourceCache(ctx context.Context, resourceType, resourceID string) (int, error) {
	n, err := t.store.DeleteByResource(ctx, resourceType, resourceID)
	if err != nil {
		return 0, &StorageError{Op: "deleteByResource", Cause: err}
	}
	return n, nil
}

// CacheStats summarizes the cache contents.
func (t *Translator) CacheStats(ctx context.Context) (*Stats, error) {
	stats, err := t.store.Stats(ctx)
	if err != nil {
		return nil, &StorageError{Op: "stats", Cause: err}
	}
	return stats, nil
}

// Flush blocks until all fire-and-forget cache writes and touches have
// settled. Useful before shutdown and in tests; normal operation never
// needs it.
func (t *Translator) Flush() {
	t.cache.wait()
}

// requestContext resolves the effective disambiguation context.
func (t *Translator) requestContext(hint string) string {
	if hint != "" {
		return hint
	}
	return t.contextHint
}

// notify delivers an analytics event, swallowing any panic so the
// observer can never break the main path.
func (t *Translator) notify(ev AnalyticsEvent) {
	if t.analytics == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	t.analytics(ev)
}

// reportError delivers a suppressed failure to the error hook, if any.
func (t *Translator) reportError(err error) {
	if t.errHook == nil || err == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	t.errHook(err)
}
