package glotta

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Marker values for entries created through manual overrides.
const (
	manualSource   = "manual"
	manualProvider = "manual"
)

// cacheLayer resolves translation requests against the two-tier key space
// on top of a Storage adapter. Read failures propagate; writes and
// touches are fire-and-forget, reported only through the error hook.
type cacheLayer struct {
	store  Storage
	report func(error)

	bg sync.WaitGroup // pending detached writes/touches
}

func newCacheLayer(store Storage, report func(error)) *cacheLayer {
	return &cacheLayer{store: store, report: report}
}

// detach launches a best-effort storage operation. Its failure or latency
// never affects the caller; errors go to the error hook.
func (c *cacheLayer) detach(fn func() error) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		if err := fn(); err != nil {
			c.report(err)
		}
	}()
}

// wait blocks until all detached operations have settled.
func (c *cacheLayer) wait() {
	c.bg.Wait()
}

// batchItem is one entry in a batched cache lookup.
type batchItem struct {
	Text string
	Res  ResourceInfo
}

// lookup resolves a single request to a cached result, or nil on a miss.
//
// With complete resource info both the resource key and the hash key are
// fetched concurrently; a resource hit always wins, even when both exist.
// A hash-key hit never reports a manual override: overrides live under
// resource keys only.
func (c *cacheLayer) lookup(ctx context.Context, text, to string, res ResourceInfo) (*CacheResult, error) {
	if !res.Complete() {
		key := HashKey(text, to)
		entry, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, &StorageError{Op: "get", Key: key, Cause: err}
		}
		if entry == nil {
			return nil, nil
		}
		c.touch(ctx, key)
		return &CacheResult{Text: entry.TranslatedText, From: entry.SourceLanguage}, nil
	}

	resKey := ResourceKey(res.Type, res.ID, res.Field, to)
	hashKey := HashKey(text, to)

	var resEntry, hashEntry *CacheEntry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entry, err := c.store.Get(gctx, resKey)
		if err != nil {
			return &StorageError{Op: "get", Key: resKey, Cause: err}
		}
		resEntry = entry
		return nil
	})
	g.Go(func() error {
		entry, err := c.store.Get(gctx, hashKey)
		if err != nil {
			return &StorageError{Op: "get", Key: hashKey, Cause: err}
		}
		hashEntry = entry
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch {
	case resEntry != nil:
		c.touch(ctx, resKey)
		return &CacheResult{
			Text:           resEntry.TranslatedText,
			From:           resEntry.SourceLanguage,
			ManualOverride: resEntry.ManualOverride,
		}, nil
	case hashEntry != nil:
		c.touch(ctx, hashKey)
		return &CacheResult{Text: hashEntry.TranslatedText, From: hashEntry.SourceLanguage}, nil
	default:
		return nil, nil
	}
}

// lookupBatch resolves a list of items against the cache, keyed by input
// index. Items with no matching entry are absent from the result map.
//
// At most two GetMany calls hit storage: one for the union of resource
// keys, one for the union of hash keys still unresolved afterwards.
// Indices sharing a key (duplicate texts) all resolve from the one entry,
// and every key that produced a hit is touched in a single TouchMany.
func (c *cacheLayer) lookupBatch(ctx context.Context, items []batchItem, to string) (map[int]CacheResult, error) {
	results := make(map[int]CacheResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	resKeyByIndex := make(map[int]string)
	var resKeys []string
	seen := make(map[string]bool)
	for i, item := range items {
		if !item.Res.Complete() {
			continue
		}
		key := ResourceKey(item.Res.Type, item.Res.ID, item.Res.Field, to)
		resKeyByIndex[i] = key
		if !seen[key] {
			seen[key] = true
			resKeys = append(resKeys, key)
		}
	}

	found := make(map[string]*CacheEntry)
	if len(resKeys) > 0 {
		entries, err := c.store.GetMany(ctx, resKeys)
		if err != nil {
			return nil, &StorageError{Op: "getMany", Cause: err}
		}
		found = entries
	}

	var touchKeys []string
	touched := make(map[string]bool)
	resolved := make(map[int]bool)
	for i, key := range resKeyByIndex {
		entry := found[key]
		if entry == nil {
			continue
		}
		results[i] = CacheResult{
			Text:           entry.TranslatedText,
			From:           entry.SourceLanguage,
			ManualOverride: entry.ManualOverride,
		}
		resolved[i] = true
		if !touched[key] {
			touched[key] = true
			touchKeys = append(touchKeys, key)
		}
	}

	hashKeyByIndex := make(map[int]string)
	var hashKeys []string
	seen = make(map[string]bool)
	for i, item := range items {
		if resolved[i] {
			continue
		}
		key := HashKey(item.Text, to)
		hashKeyByIndex[i] = key
		if !seen[key] {
			seen[key] = true
			hashKeys = append(hashKeys, key)
		}
	}

	if len(hashKeys) > 0 {
		entries, err := c.store.GetMany(ctx, hashKeys)
		if err != nil {
			return nil, &StorageError{Op: "getMany", Cause: err}
		}
		for i, key := range hashKeyByIndex {
			entry := entries[key]
			if entry == nil {
				continue
			}
			// Hash entries are never manual overrides.
			results[i] = CacheResult{Text: entry.TranslatedText, From: entry.SourceLanguage}
			if !touched[key] {
				touched[key] = true
				touchKeys = append(touchKeys, key)
			}
		}
	}

	if len(touchKeys) > 0 {
		bg := context.WithoutCancel(ctx)
		c.detach(func() error {
			if err := c.store.TouchMany(bg, touchKeys); err != nil {
				return &StorageError{Op: "touchMany", Cause: err}
			}
			return nil
		})
	}

	return results, nil
}

// newEntry builds a cache entry for a fresh translation. The key follows
// the request's key space: resource key when resource info is complete,
// hash key otherwise.
func (c *cacheLayer) newEntry(text, from, to, translated string, res ResourceInfo, info BackendInfo) *CacheEntry {
	now := time.Now().UTC()
	entry := &CacheEntry{
		ID:             cacheKey(text, to, res),
		SourceText:     text,
		SourceLanguage: from,
		TargetLanguage: to,
		TranslatedText: translated,
		Provider:       info.Provider,
		Model:          info.Model,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastUsedAt:     now,
	}
	if res.Complete() {
		entry.ResourceType = res.Type
		entry.ResourceID = res.ID
		entry.Field = res.Field
	}
	return entry
}

// put upserts a single entry.
func (c *cacheLayer) put(ctx context.Context, entry *CacheEntry) error {
	if err := c.store.Set(ctx, entry); err != nil {
		return &StorageError{Op: "set", Key: entry.ID, Cause: err}
	}
	return nil
}

// putBatch upserts a batch of entries. No-op for empty input.
func (c *cacheLayer) putBatch(ctx context.Context, entries []*CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := c.store.SetMany(ctx, entries); err != nil {
		return &StorageError{Op: "setMany", Cause: err}
	}
	return nil
}

// setManual writes an override under the resource key. Last writer wins.
func (c *cacheLayer) setManual(ctx context.Context, m ManualTranslation) error {
	now := time.Now().UTC()
	entry := &CacheEntry{
		ID:             ResourceKey(m.ResourceType, m.ResourceID, m.Field, m.To),
		SourceText:     m.Text,
		SourceLanguage: manualSource,
		TargetLanguage: m.To,
		TranslatedText: m.TranslatedText,
		ResourceType:   m.ResourceType,
		ResourceID:     m.ResourceID,
		Field:          m.Field,
		ManualOverride: true,
		Provider:       manualProvider,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastUsedAt:     now,
	}
	if err := c.store.Set(ctx, entry); err != nil {
		return &StorageError{Op: "set", Key: entry.ID, Cause: err}
	}
	return nil
}

// clearManual deletes exactly the resource key. Any hash-key entry for
// the same text is left in place, so a later lookup falls back to it.
func (c *cacheLayer) clearManual(ctx context.Context, k ManualTranslationKey) error {
	key := ResourceKey(k.ResourceType, k.ResourceID, k.Field, k.To)
	if err := c.store.Delete(ctx, key); err != nil {
		return &StorageError{Op: "delete", Key: key, Cause: err}
	}
	return nil
}

// touch updates the entry's last-used timestamp, fire-and-forget.
func (c *cacheLayer) touch(ctx context.Context, key string) {
	bg := context.WithoutCancel(ctx)
	c.detach(func() error {
		if err := c.store.Touch(bg, key); err != nil {
			return &StorageError{Op: "touch", Key: key, Cause: err}
		}
		return nil
	})
}
