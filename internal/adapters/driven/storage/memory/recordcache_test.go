package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

func newEntry(key string, ttl time.Duration) *domain.CacheEntry {
	now := time.Now()
	return &domain.CacheEntry{
		Key:        key,
		Kind:       domain.EntrySearch,
		Records:    []domain.CanonicalRecord{{ID: "tt1", Title: "Inception"}},
		InsertedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestRecordCacheGetSet(t *testing.T) {
	cache := NewRecordCache(8)

	entry := newEntry("q:inception", time.Hour)
	cache.Set(entry)

	got, ok := cache.Get("q:inception")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	_, ok = cache.Get("q:other")
	assert.False(t, ok)
}

func TestRecordCacheLazyExpiry(t *testing.T) {
	cache := NewRecordCache(8)
	cache.Set(newEntry("q:inception", time.Hour))

	// Jump the clock past expiry.
	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := cache.Get("q:inception")
	assert.False(t, ok, "expired entries are invisible immediately")
	assert.Equal(t, 0, cache.Len(), "expired entries are dropped on access")
}

func TestRecordCacheLRUEviction(t *testing.T) {
	cache := NewRecordCache(2)

	cache.Set(newEntry("a", time.Hour))
	cache.Set(newEntry("b", time.Hour))

	// Touch "a" so "b" is the LRU victim.
	_, ok := cache.Get("a")
	require.True(t, ok)

	cache.Set(newEntry("c", time.Hour))

	_, ok = cache.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestRecordCacheRemove(t *testing.T) {
	cache := NewRecordCache(8)
	cache.Set(newEntry("a", time.Hour))

	cache.Remove("a")
	_, ok := cache.Get("a")
	assert.False(t, ok)

	// Removing an absent key is a no-op.
	cache.Remove("missing")
}

func TestRecordCacheDefaultCapacity(t *testing.T) {
	cache := NewRecordCache(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		cache.Set(newEntry(fmt.Sprintf("k%d", i), time.Hour))
	}
	assert.Equal(t, DefaultCapacity, cache.Len())
}

func TestImageCache(t *testing.T) {
	cache := NewImageCache(2)

	img := &domain.ResolvedImage{Data: []byte("svg"), ContentType: "image/svg+xml", ContentHash: "abc"}
	cache.Set("abc", img)

	got, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, img, got)

	cache.Set("def", img)
	cache.Set("ghi", img)

	_, ok = cache.Get("abc")
	assert.False(t, ok, "capacity bound evicts the oldest image")
}
