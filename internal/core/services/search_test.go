package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

func testCacheConfig() domain.CacheConfig {
	return domain.CacheConfig{
		MemoryCapacity: 128,
		SearchTTL:      time.Hour,
		RecordTTL:      2 * time.Hour,
		SweepInterval:  15 * time.Minute,
	}
}

// newTestSearchService wires a full facade over mock adapters.
func newTestSearchService(t *testing.T, adapters ...driven.SourceAdapter) *SearchService {
	t.Helper()

	cache := NewInstantCache(newMockMemoryCache(), newMockCacheStore())
	health := NewHealthService(adapters, time.Minute)
	orch := NewOrchestrator(adapters, health, testSourcesConfig())

	images := NewImageService(
		newMockImageStore(), newMockImageCache(), newMockImageFetcher(), nil,
		testImagesConfig(),
		func(context.Context, string) (*domain.CanonicalRecord, error) {
			return nil, domain.ErrNotFound
		},
	)

	return NewSearchService(cache, orch, images, health, testCacheConfig())
}

func TestSearchService_CacheHitSkipsAdapters(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{candidate("primary", "tt0001", "Inception", 0.9)}, nil
		},
	}
	svc := newTestSearchService(t, primary)

	first, err := svc.Search(context.Background(), "Inception", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.LayerLive, first.Provenance.LayerUsed)
	require.Len(t, first.Results, 1)

	// Same query, different raw casing: normalization hits the same key.
	second, err := svc.Search(context.Background(), "  INCEPTION ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.LayerInstant, second.Provenance.LayerUsed)
	assert.Equal(t, first.Results[0].ID, second.Results[0].ID)

	assert.Equal(t, int32(1), primary.calls.Load())
}

func TestSearchService_ConcurrentSearchesCollapse(t *testing.T) {
	release := make(chan struct{})
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			<-release
			return []domain.RawCandidate{candidate("primary", "tt0001", "Inception", 0.9)}, nil
		},
	}
	svc := newTestSearchService(t, primary)

	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Search(context.Background(), "inception", domain.SearchOptions{})
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), primary.calls.Load())
}

func TestSearchService_EmptyAnswerIsNotAnError(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{}, nil
		},
	}
	svc := newTestSearchService(t, primary)

	res, err := svc.Search(context.Background(), "zvxqwk", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestSearchService_AllSourcesFailedPropagates(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return nil, domain.NewAdapterError("primary", domain.ErrorRateLimited, nil)
		},
	}
	svc := newTestSearchService(t, primary)

	var events []domain.QueryEvent
	svc.SetObserver(func(e domain.QueryEvent) { events = append(events, e) })

	_, err := svc.Search(context.Background(), "inception", domain.SearchOptions{})
	require.ErrorIs(t, err, domain.ErrAllSourcesFailed)

	require.Len(t, events, 1)
	assert.Equal(t, domain.OutcomeFailed, events[0].Outcome)
}

func TestSearchService_RejectsEmptyQuery(t *testing.T) {
	svc := newTestSearchService(t, &mockAdapter{name: "primary", tier: domain.TierPrimary})

	_, err := svc.Search(context.Background(), "   ", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_EveryResultCarriesImage(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			with := candidate("primary", "tt0001", "Inception", 0.9)
			with.ImageURLs = []string{"https://img.example.com/inception.jpg"}
			without := candidate("primary", "tt0002", "Following", 0.9)
			return []domain.RawCandidate{with, without}, nil
		},
	}
	svc := newTestSearchService(t, primary)

	res, err := svc.Search(context.Background(), "nolan", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)

	for _, r := range res.Results {
		assert.True(t, r.HasUsableImage(), "record %s has no usable image", r.ID)
	}

	// The record with a candidate resolves it; the other degrades to a
	// generated placeholder.
	byID := map[string]domain.CanonicalRecord{}
	for _, r := range res.Results {
		byID[r.ID] = r
	}
	assert.False(t, byID["tt0001"].Image.Generated)
	assert.True(t, byID["tt0002"].Image.Generated)
}

func TestSearchService_WarmedEntryReportsPrefetchLayer(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{candidate("primary", "tt0001", "Inception", 0.9)}, nil
		},
	}
	svc := newTestSearchService(t, primary)

	require.NoError(t, svc.WarmQuery(context.Background(), "inception"))

	res, err := svc.Search(context.Background(), "inception", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.LayerPrefetch, res.Provenance.LayerUsed)
	assert.Equal(t, int32(1), primary.calls.Load())
}

func TestSearchService_Filters(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			older := domain.RawCandidate{
				Source: "primary", UpstreamID: "tt0001", Title: "Following",
				Year: "1998", Genres: "Crime, Mystery", Confidence: 0.9,
			}
			newer := domain.RawCandidate{
				Source: "primary", UpstreamID: "tt0002", Title: "Inception",
				Year: "2010", Genres: "Action, Sci-Fi", Confidence: 0.9,
			}
			return []domain.RawCandidate{older, newer}, nil
		},
	}
	svc := newTestSearchService(t, primary)

	yearFrom := 2000
	res, err := svc.Search(context.Background(), "nolan", domain.SearchOptions{YearFrom: &yearFrom})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "tt0002", res.Results[0].ID)

	res, err = svc.Search(context.Background(), "nolan", domain.SearchOptions{Genre: "mystery"})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "tt0001", res.Results[0].ID)
}

func TestSearchService_GetByID_CachesRecord(t *testing.T) {
	var calls int
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetchByID: func(_ context.Context, id string) (*domain.RawCandidate, error) {
			calls++
			c := candidate("primary", id, "Interstellar", 0.9)
			return &c, nil
		},
	}
	svc := newTestSearchService(t, primary)

	first, err := svc.GetByID(context.Background(), "tt0816692")
	require.NoError(t, err)
	assert.Equal(t, "Interstellar", first.Title)
	assert.Equal(t, domain.LayerLive, first.Provenance.LayerUsed)
	assert.True(t, first.HasUsableImage())

	second, err := svc.GetByID(context.Background(), "tt0816692")
	require.NoError(t, err)
	assert.Equal(t, domain.LayerInstant, second.Provenance.LayerUsed)
	assert.Equal(t, 1, calls)
}

func TestSearchService_GetByID_NotFound(t *testing.T) {
	svc := newTestSearchService(t, &mockAdapter{name: "primary", tier: domain.TierPrimary})

	_, err := svc.GetByID(context.Background(), "tt9999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchService_ObserverSeesHitsAndResolutions(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{candidate("primary", "tt0001", "Inception", 0.9)}, nil
		},
	}
	svc := newTestSearchService(t, primary)

	var mu sync.Mutex
	var outcomes []domain.QueryOutcome
	svc.SetObserver(func(e domain.QueryEvent) {
		mu.Lock()
		outcomes = append(outcomes, e.Outcome)
		mu.Unlock()
	})

	_, err := svc.Search(context.Background(), "inception", domain.SearchOptions{})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "inception", domain.SearchOptions{})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.QueryOutcome{domain.OutcomeResolved, domain.OutcomeHit}, outcomes)
}
