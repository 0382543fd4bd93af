package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory cache store. It implements the
// full Storage surface including scoped deletes and statistics, and is
// the default store for tests, examples and the CLI.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*CacheEntry)}
}

// Get returns the entry for id, or nil if absent.
func (s *MemoryStore) Get(_ context.Context, id string) (*CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

// GetMany returns the entries for the given ids; missing ids are absent
// from the result.
func (s *MemoryStore) GetMany(_ context.Context, ids []string) (map[string]*CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*CacheEntry, len(ids))
	for _, id := range ids {
		if entry, ok := s.entries[id]; ok {
			clone := *entry
			result[id] = &clone
		}
	}
	return result, nil
}

// Set upserts an entry by ID. The creation timestamp of an existing
// entry is preserved.
func (s *MemoryStore) Set(_ context.Context, entry *CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	if prev, ok := s.entries[entry.ID]; ok && !prev.CreatedAt.IsZero() {
		clone.CreatedAt = prev.CreatedAt
	}
	s.entries[entry.ID] = &clone
	return nil
}

// SetMany upserts a batch of entries.
func (s *MemoryStore) SetMany(ctx context.Context, entries []*CacheEntry) error {
	for _, entry := range entries {
		if err := s.Set(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Touch updates the last-used timestamp only. Touching a missing id is a
// no-op.
func (s *MemoryStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[id]; ok {
		entry.LastUsedAt = time.Now().UTC()
	}
	return nil
}

// TouchMany updates last-used timestamps for a batch of ids.
func (s *MemoryStore) TouchMany(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, id := range ids {
		if entry, ok := s.entries[id]; ok {
			entry.LastUsedAt = now
		}
	}
	return nil
}

// Delete removes the entry for id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

// DeleteByResource removes all entries for a (resourceType, resourceID)
// pair and returns the number removed.
func (s *MemoryStore) DeleteByResource(_ context.Context, resourceType, resourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, entry := range s.entries {
		if entry.ResourceType == resourceType && entry.ResourceID == resourceID {
			delete(s.entries, id)
			count++
		}
	}
	return count, nil
}

// DeleteByLanguage removes all entries for a target language and returns
// the number removed.
func (s *MemoryStore) DeleteByLanguage(_ context.Context, targetLanguage string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, entry := range s.entries {
		if entry.TargetLanguage == targetLanguage {
			delete(s.entries, id)
			count++
		}
	}
	return count, nil
}

// DeleteAll removes every entry and returns the number removed.
func (s *MemoryStore) DeleteAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.entries)
	s.entries = make(map[string]*CacheEntry)
	return count, nil
}

// Stats summarizes the store contents.
func (s *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalEntries: len(s.entries),
		ByLanguage:   make(map[string]int),
	}
	for _, entry := range s.entries {
		stats.ByLanguage[entry.TargetLanguage]++
		if entry.ManualOverride {
			stats.ManualOverrides++
		}
	}
	return stats, nil
}

// Len returns the number of entries in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a snapshot of all entries. Used for cache export.
func (s *MemoryStore) Entries() []*CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*CacheEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		clone := *entry
		result = append(result, &clone)
	}
	return result
}

// Verify MemoryStore implements Storage
var _ Storage = (*MemoryStore)(nil)
