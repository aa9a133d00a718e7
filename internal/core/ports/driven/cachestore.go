package driven

import (
	"context"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// MemoryCache is the bounded in-process tier of the instant cache.
// Lookups are sub-millisecond and never touch I/O, so the methods take no
// context. Implementations handle LRU eviction internally.
type MemoryCache interface {
	// Get returns the entry for key, or false on miss.
	// Expired entries are treated as misses.
	Get(key string) (*domain.CacheEntry, bool)

	// Set inserts or replaces the entry, evicting under capacity pressure.
	Set(entry *domain.CacheEntry)

	// Remove drops the entry for key if present.
	Remove(key string)

	// Len returns the current entry count.
	Len() int
}

// CacheStore is the persistent tier of the instant cache.
type CacheStore interface {
	// Get returns the entry for key. Returns domain.ErrNotFound on miss.
	// Expired entries are invisible: implementations return ErrNotFound
	// for them even before the sweep reclaims the row.
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)

	// Put inserts or supersedes the entry for its key.
	Put(ctx context.Context, entry *domain.CacheEntry) error

	// Delete removes the entry for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// SweepExpired removes entries whose ExpiresAt is at or before now,
	// returning how many were removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)

	// Close releases the underlying storage.
	Close() error
}
