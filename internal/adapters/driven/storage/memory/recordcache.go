// Package memory provides the in-process tier of the instant cache.
// Lookups never touch I/O; LRU eviction bounds memory use.
package memory

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

// Ensure RecordCache implements the interface.
var _ driven.MemoryCache = (*RecordCache)(nil)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 2048

// RecordCache is a bounded LRU over cache entries. Entries carry their own
// ExpiresAt, so expiry is checked lazily on Get rather than with a
// per-cache TTL: search and record entries live in one cache with
// different lifetimes.
type RecordCache struct {
	entries *lru.Cache[string, *domain.CacheEntry]
	now     func() time.Time
}

// NewRecordCache creates a record cache bounded to capacity entries.
func NewRecordCache(capacity int) *RecordCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// New only fails for non-positive sizes, which the guard excludes.
	entries, _ := lru.New[string, *domain.CacheEntry](capacity)
	return &RecordCache{entries: entries, now: time.Now}
}

// Get returns the entry for key. Expired entries are removed and reported
// as a miss immediately; the persistent sweep is irrelevant to this tier.
func (c *RecordCache) Get(key string) (*domain.CacheEntry, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if entry.Expired(c.now()) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry, true
}

// Set inserts or replaces the entry, evicting the least recently used
// entry under capacity pressure.
func (c *RecordCache) Set(entry *domain.CacheEntry) {
	c.entries.Add(entry.Key, entry)
}

// Remove drops the entry for key if present.
func (c *RecordCache) Remove(key string) {
	c.entries.Remove(key)
}

// Len returns the current entry count.
func (c *RecordCache) Len() int {
	return c.entries.Len()
}
