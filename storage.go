package glotta

import "context"

// Storage is the pluggable persistence port for cache entries. Concrete
// adapters (in-memory, Redis, SQL) live outside the core; the engine
// depends only on this interface.
//
// Read failures (Get, GetMany, Stats) propagate to translation callers.
// Write and touch failures are treated as best-effort by the engine and
// reported through the error hook only.
type Storage interface {
	// Get returns the entry for id, or nil if absent.
	Get(ctx context.Context, id string) (*CacheEntry, error)

	// GetMany returns the entries for the given ids. Missing ids are
	// simply absent from the result map.
	GetMany(ctx context.Context, ids []string) (map[string]*CacheEntry, error)

	// Set upserts an entry by its ID.
	Set(ctx context.Context, entry *CacheEntry) error

	// SetMany upserts a batch of entries.
	SetMany(ctx context.Context, entries []*CacheEntry) error

	// Touch updates only the entry's last-used timestamp.
	Touch(ctx context.Context, id string) error

	// TouchMany updates last-used timestamps for a batch of ids.
	TouchMany(ctx context.Context, ids []string) error

	// Delete removes the entry for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByResource removes all entries for a (resourceType, resourceID)
	// pair and returns the number removed.
	DeleteByResource(ctx context.Context, resourceType, resourceID string) (int, error)

	// DeleteByLanguage removes all entries for a target language and
	// returns the number removed.
	DeleteByLanguage(ctx context.Context, targetLanguage string) (int, error)

	// DeleteAll removes every entry and returns the number removed.
	DeleteAll(ctx context.Context) (int, error)

	// Stats summarizes the cache contents.
	Stats(ctx context.Context) (*Stats, error)
}
