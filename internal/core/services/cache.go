package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
	"github.com/Shubham12864/cinescope/internal/logger"
)

// InstantCache is the two-tier Layer 1 cache: a bounded in-process LRU in
// front of the persistent SQLite tier. Memory answers in microseconds; the
// persistent tier survives restarts and promotes hot entries back up.
type InstantCache struct {
	memory     driven.MemoryCache
	persistent driven.CacheStore

	group singleflight.Group

	memoryHits     atomic.Int64
	persistentHits atomic.Int64
	misses         atomic.Int64
	shared         atomic.Int64
	swept          atomic.Int64

	closed atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewInstantCache creates the two-tier cache over the given backends.
func NewInstantCache(memory driven.MemoryCache, persistent driven.CacheStore) *InstantCache {
	return &InstantCache{
		memory:     memory,
		persistent: persistent,
		done:       make(chan struct{}),
	}
}

// Get returns the cached entry for key, checking memory first and promoting
// persistent hits into memory. The second return is false on a miss.
func (c *InstantCache) Get(ctx context.Context, key string) (*domain.CacheEntry, bool) {
	if c.closed.Load() {
		return nil, false
	}

	if entry, ok := c.memory.Get(key); ok {
		atomic.AddInt64(&entry.HitCount, 1)
		c.memoryHits.Add(1)
		return entry, true
	}

	entry, err := c.persistent.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Persistent cache read failed for %q: %v", key, err)
		}
		c.misses.Add(1)
		return nil, false
	}

	// Promote so the next lookup stays in memory.
	atomic.AddInt64(&entry.HitCount, 1)
	c.memory.Set(entry)
	c.persistentHits.Add(1)
	return entry, true
}

// Put writes the entry to both tiers. The memory write is synchronous so a
// resolution is instantly visible; the persistent write is detached and
// best-effort, a failure there costs durability, not correctness.
func (c *InstantCache) Put(ctx context.Context, entry *domain.CacheEntry) error {
	if c.closed.Load() {
		return domain.ErrCacheClosed
	}
	if !entry.ExpiresAt.After(entry.InsertedAt) {
		return domain.ErrInvalidInput
	}

	// Copy before publishing to the memory tier: readers bump HitCount on
	// the live entry while the detached write is still in flight.
	snapshot := *entry
	c.memory.Set(entry)

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.persistent.Put(writeCtx, &snapshot); err != nil {
			logger.Warn("Persistent cache write failed for %q: %v", snapshot.Key, err)
		}
	}()

	return nil
}

// GetOrResolve returns the cached entry for key, or runs resolve exactly
// once across all concurrent callers and caches its result. The boolean
// reports whether the entry came from cache.
func (c *InstantCache) GetOrResolve(
	ctx context.Context,
	key string,
	resolve func(ctx context.Context) (*domain.CacheEntry, error),
) (*domain.CacheEntry, bool, error) {
	if entry, ok := c.Get(ctx, key); ok {
		return entry, true, nil
	}

	v, err, sharedCall := c.group.Do(key, func() (any, error) {
		// A concurrent caller may have finished resolving while this one
		// queued behind the flight.
		if entry, ok := c.Get(ctx, key); ok {
			return entry, nil
		}

		entry, err := resolve(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(ctx, entry); err != nil && !errors.Is(err, domain.ErrCacheClosed) {
			logger.Warn("Caching resolution for %q failed: %v", key, err)
		}
		return entry, nil
	})
	if sharedCall {
		c.shared.Add(1)
	}
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.CacheEntry), false, nil
}

// Peek returns the memory-tier entry for key without touching hit
// counters. Used by the prefetch scheduler to inspect expiry times.
func (c *InstantCache) Peek(key string) (*domain.CacheEntry, bool) {
	return c.memory.Get(key)
}

// Invalidate drops the entry for key from both tiers.
func (c *InstantCache) Invalidate(ctx context.Context, key string) {
	c.memory.Remove(key)
	if err := c.persistent.Delete(ctx, key); err != nil {
		logger.Warn("Persistent cache delete failed for %q: %v", key, err)
	}
}

// Stats returns cumulative cache counters.
func (c *InstantCache) Stats() domain.CacheStats {
	return domain.CacheStats{
		MemoryHits:     c.memoryHits.Load(),
		PersistentHits: c.persistentHits.Load(),
		Misses:         c.misses.Load(),
		Shared:         c.shared.Load(),
		Swept:          c.swept.Load(),
	}
}

// StartSweep launches the periodic sweep reclaiming expired persistent
// rows. Expired entries are already invisible to readers; the sweep only
// frees storage.
func (c *InstantCache) StartSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		defer close(c.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := c.persistent.SweepExpired(ctx, time.Now().UTC())
				if err != nil {
					logger.Warn("Cache sweep failed: %v", err)
					continue
				}
				if n > 0 {
					c.swept.Add(int64(n))
					logger.Debug("Cache sweep reclaimed %d entries", n)
				}
			}
		}
	}()
}

// Close stops the sweep and closes the persistent tier.
func (c *InstantCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	return c.persistent.Close()
}
