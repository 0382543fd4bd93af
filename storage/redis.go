package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN-based operations.
const scanBatch = 200

// RedisStore is a Redis-backed cache store. Entries are stored as JSON
// under a key prefix; scoped deletes and statistics use SCAN over the
// prefix, relying on cache keys ending in ":<targetLanguage>".
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    // TTL in seconds (0 = no expiration)
	KeyPrefix string // Prefix for all keys (default: "glotta:")
}

// NewRedisStore creates a new Redis store with the given configuration.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
func NewRedisStoreFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "glotta:"
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}

	return &RedisStore{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Get returns the entry for id, or nil if absent.
func (s *RedisStore) Get(ctx context.Context, id string) (*CacheEntry, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeEntry(val)
}

// GetMany returns the entries for the given ids in one MGET; missing or
// undecodable ids are absent from the result.
func (s *RedisStore) GetMany(ctx context.Context, ids []string) (map[string]*CacheEntry, error) {
	result := make(map[string]*CacheEntry, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keyPrefix + id
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, val := range vals {
		str, ok := val.(string)
		if !ok {
			continue
		}
		entry, err := decodeEntry(str)
		if err != nil {
			continue
		}
		result[ids[i]] = entry
	}
	return result, nil
}

// Set upserts an entry by its ID.
func (s *RedisStore) Set(ctx context.Context, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keyPrefix+entry.ID, data, s.ttl).Err()
}

// SetMany upserts a batch of entries in one pipeline.
func (s *RedisStore) SetMany(ctx context.Context, entries []*CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		pipe.Set(ctx, s.keyPrefix+entry.ID, data, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Touch updates only the entry's last-used timestamp. Touching a missing
// id is a no-op.
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	entry, err := s.Get(ctx, id)
	if err != nil || entry == nil {
		return err
	}
	entry.LastUsedAt = time.Now().UTC()
	return s.Set(ctx, entry)
}

// TouchMany updates last-used timestamps for a batch of ids.
func (s *RedisStore) TouchMany(ctx context.Context, ids []string) error {
	entries, err := s.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	touched := make([]*CacheEntry, 0, len(entries))
	for _, entry := range entries {
		entry.LastUsedAt = now
		touched = append(touched, entry)
	}
	return s.SetMany(ctx, touched)
}

// Delete removes the entry for id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.keyPrefix+id).Err()
}

// DeleteByResource removes all entries for a (resourceType, resourceID)
// pair and returns the number removed.
func (s *RedisStore) DeleteByResource(ctx context.Context, resourceType, resourceID string) (int, error) {
	pattern := s.keyPrefix + "res:" + resourceType + ":" + resourceID + ":*"
	return s.deleteByPattern(ctx, pattern)
}

// DeleteByLanguage removes all entries for a target language and returns
// the number removed. Both key spaces end in ":<targetLanguage>".
func (s *RedisStore) DeleteByLanguage(ctx context.Context, targetLanguage string) (int, error) {
	return s.deleteByPattern(ctx, s.keyPrefix+"*:"+targetLanguage)
}

// DeleteAll removes every entry under the key prefix and returns the
// number removed.
func (s *RedisStore) DeleteAll(ctx context.Context) (int, error) {
	return s.deleteByPattern(ctx, s.keyPrefix+"*")
}

// Stats summarizes the store contents by scanning and decoding all
// entries under the key prefix.
func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	keys, err := s.scanKeys(ctx, s.keyPrefix+"*")
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByLanguage: make(map[string]int)}
	for start := 0; start < len(keys); start += scanBatch {
		end := start + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		vals, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, err
		}
		for _, val := range vals {
			str, ok := val.(string)
			if !ok {
				continue
			}
			entry, err := decodeEntry(str)
			if err != nil {
				continue
			}
			stats.TotalEntries++
			stats.ByLanguage[entry.TargetLanguage]++
			if entry.ManualOverride {
				stats.ManualOverrides++
			}
		}
	}
	return stats, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// scanKeys collects all keys matching pattern.
func (s *RedisStore) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// deleteByPattern removes all keys matching pattern and returns the count.
func (s *RedisStore) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	keys, err := s.scanKeys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func decodeEntry(val string) (*CacheEntry, error) {
	var entry CacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Verify RedisStore implements Storage
var _ Storage = (*RedisStore)(nil)
