// Package storage provides cache storage adapters for the translation engine.
package storage

import "github.com/ZaguanLabs/glotta"

// Storage is the interface for translation cache persistence.
// This is an alias to the main package interface for convenience.
type Storage = glotta.Storage

// CacheEntry is an alias to the main package type.
type CacheEntry = glotta.CacheEntry

// Stats is an alias to the main package type.
type Stats = glotta.Stats
