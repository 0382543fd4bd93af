package glotta

import (
	"strconv"
	"unicode/utf16"
)

// Key space prefixes. Hash keys identify a translation by content only;
// resource keys identify it by application-level location.
const (
	hashKeyPrefix     = "hash:"
	resourceKeyPrefix = "res:"
)

// HashText computes a fast, deterministic, non-cryptographic hash of the
// text, encoded in base 36. It rolls over UTF-16 code units with 32-bit
// wrapping arithmetic, so the output is stable across platforms and
// process restarts. The empty string hashes to "0".
//
// Collisions are possible but accepted: cache keys trade cryptographic
// strength for speed, and a collision costs at worst a wrong cache hit
// with the same risk profile on every platform.
func HashText(text string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(text)) {
		h = h*31 + int32(u)
	}
	return strconv.FormatUint(uint64(uint32(h)), 36)
}

// HashKey builds a content-hash cache key for a text and target language.
// Two requests with identical text and target always share this key,
// regardless of their claimed source language.
func HashKey(text, to string) string {
	return hashKeyPrefix + HashText(text) + ":" + to
}

// ResourceKey builds a resource-scoped cache key, independent of the
// text's current content.
func ResourceKey(resourceType, resourceID, field, to string) string {
	return resourceKeyPrefix + resourceType + ":" + resourceID + ":" + field + ":" + to
}

// cacheKey picks the key space for a request: resource key when complete
// resource info is present, hash key otherwise.
func cacheKey(text, to string, res ResourceInfo) string {
	if res.Complete() {
		return ResourceKey(res.Type, res.ID, res.Field, to)
	}
	return HashKey(text, to)
}
