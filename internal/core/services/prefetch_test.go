package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// mockPatternStore is a map-backed PatternStore.
type mockPatternStore struct {
	mu       sync.Mutex
	patterns map[string]*domain.QueryPattern
}

func newMockPatternStore() *mockPatternStore {
	return &mockPatternStore{patterns: make(map[string]*domain.QueryPattern)}
}

func (m *mockPatternStore) Get(_ context.Context, normalized string) (*domain.QueryPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patterns[normalized]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	cp.Variants = append([]string(nil), p.Variants...)
	return &cp, nil
}

func (m *mockPatternStore) Upsert(_ context.Context, pattern *domain.QueryPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pattern
	m.patterns[pattern.NormalizedQuery] = &cp
	return nil
}

func (m *mockPatternStore) List(_ context.Context, minFrequency int64) ([]domain.QueryPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.QueryPattern
	for _, p := range m.patterns {
		if p.Frequency >= minFrequency {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	return out, nil
}

func (m *mockPatternStore) Decay(_ context.Context, notSeenSince time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, p := range m.patterns {
		if p.LastSeen.Before(notSeenSince) {
			p.Frequency /= 2
			n++
			if p.Frequency <= 0 {
				delete(m.patterns, key)
			}
		}
	}
	return n, nil
}

func (m *mockPatternStore) Close() error { return nil }

func testPrefetchConfig() domain.PrefetchConfig {
	return domain.PrefetchConfig{
		Enabled:            true,
		Workers:            2,
		FrequencyThreshold: 3,
		RefreshLead:        30 * time.Minute,
		DecayInterval:      6 * time.Hour,
	}
}

// collectWarm returns a warm func recording queries on a channel.
func collectWarm(buf int) (func(context.Context, string) error, chan string) {
	warmed := make(chan string, buf)
	return func(_ context.Context, query string) error {
		warmed <- query
		return nil
	}, warmed
}

func TestPrefetch_TrackIncrementsFrequency(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, _ := collectWarm(1)
	engine := NewPrefetchService(patterns, cache, testPrefetchConfig(), warm)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		engine.track(ctx, domain.QueryEvent{RawQuery: "Inception", Outcome: domain.OutcomeHit})
	}

	pattern, err := patterns.Get(ctx, "inception")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pattern.Frequency)
	assert.Equal(t, "Inception", pattern.RawQuery)
	assert.False(t, pattern.LastSeen.IsZero())
}

func TestPrefetch_TrackLinksVariants(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, _ := collectWarm(1)
	engine := NewPrefetchService(patterns, cache, testPrefetchConfig(), warm)

	ctx := context.Background()
	engine.track(ctx, domain.QueryEvent{RawQuery: "inception"})
	engine.track(ctx, domain.QueryEvent{RawQuery: "inception 2010"})

	parent, err := patterns.Get(ctx, "inception")
	require.NoError(t, err)
	assert.Equal(t, []string{"inception 2010"}, parent.Variants)

	// An unrelated follow-up query links nothing.
	engine.track(ctx, domain.QueryEvent{RawQuery: "memento"})
	parent, err = patterns.Get(ctx, "inception")
	require.NoError(t, err)
	assert.Len(t, parent.Variants, 1)
}

func TestPrefetch_ObserveNeverBlocks(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, _ := collectWarm(1)
	engine := NewPrefetchService(patterns, cache, testPrefetchConfig(), warm)

	// No consumer is running; events past the buffer must be dropped, not
	// block the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < eventBuffer*2; i++ {
			engine.Observe(domain.QueryEvent{RawQuery: "burst"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked under backpressure")
	}
}

func TestPrefetch_ScheduleWarmsHotMissingQueries(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, warmed := collectWarm(4)
	engine := NewPrefetchService(patterns, cache, testPrefetchConfig(), warm)

	ctx := context.Background()
	require.NoError(t, patterns.Upsert(ctx, &domain.QueryPattern{
		NormalizedQuery: "inception",
		RawQuery:        "inception",
		Frequency:       5,
		LastSeen:        time.Now().UTC(),
	}))
	require.NoError(t, patterns.Upsert(ctx, &domain.QueryPattern{
		NormalizedQuery: "rare query",
		RawQuery:        "rare query",
		Frequency:       1, // below threshold
		LastSeen:        time.Now().UTC(),
	}))

	engine.schedule(ctx)

	select {
	case q := <-warmed:
		assert.Equal(t, "inception", q)
	case <-time.After(time.Second):
		t.Fatal("hot query was not warmed")
	}

	select {
	case q := <-warmed:
		t.Fatalf("unexpected warm for %q", q)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPrefetch_ScheduleSkipsFreshEntries(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, warmed := collectWarm(4)
	engine := NewPrefetchService(patterns, cache, testPrefetchConfig(), warm)

	ctx := context.Background()
	require.NoError(t, patterns.Upsert(ctx, &domain.QueryPattern{
		NormalizedQuery: "inception",
		Frequency:       5,
		LastSeen:        time.Now().UTC(),
	}))
	// Fresh entry: expires far beyond the refresh lead.
	require.NoError(t, cache.Put(ctx, cacheEntry(domain.SearchKey("inception"), 2*time.Hour)))

	engine.schedule(ctx)

	select {
	case q := <-warmed:
		t.Fatalf("fresh entry %q should not be warmed", q)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPrefetch_ScheduleRefreshesExpiringEntries(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, warmed := collectWarm(4)
	engine := NewPrefetchService(patterns, cache, testPrefetchConfig(), warm)

	ctx := context.Background()
	require.NoError(t, patterns.Upsert(ctx, &domain.QueryPattern{
		NormalizedQuery: "inception",
		Frequency:       5,
		LastSeen:        time.Now().UTC(),
	}))
	// Expires within the 30 minute refresh lead.
	require.NoError(t, cache.Put(ctx, cacheEntry(domain.SearchKey("inception"), 10*time.Minute)))

	engine.schedule(ctx)

	select {
	case q := <-warmed:
		assert.Equal(t, "inception", q)
	case <-time.After(time.Second):
		t.Fatal("expiring entry was not refreshed")
	}
}

func TestPrefetch_SeasonalWatchlist(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, warmed := collectWarm(4)

	thisMonth := int(time.Now().Month())
	otherMonth := thisMonth%12 + 1

	cfg := testPrefetchConfig()
	cfg.Watchlist = []domain.SeasonalEntry{
		{Query: "Christmas Movies", Months: []int{thisMonth}},
		{Query: "halloween movies", Months: []int{otherMonth}},
	}
	engine := NewPrefetchService(patterns, cache, cfg, warm)

	engine.schedule(context.Background())

	select {
	case q := <-warmed:
		assert.Equal(t, "christmas movies", q)
	case <-time.After(time.Second):
		t.Fatal("active watchlist entry was not warmed")
	}

	select {
	case q := <-warmed:
		t.Fatalf("out-of-season entry %q was warmed", q)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPrefetch_DisabledEngineDoesNotStart(t *testing.T) {
	patterns := newMockPatternStore()
	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	warm, _ := collectWarm(1)

	cfg := testPrefetchConfig()
	cfg.Enabled = false
	engine := NewPrefetchService(patterns, cache, cfg, warm)

	require.NoError(t, engine.Start(context.Background()))
	assert.NoError(t, engine.Stop())
}
