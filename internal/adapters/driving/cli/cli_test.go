package cli

import (
	"context"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// stubSearchService returns canned responses for command tests.
type stubSearchService struct {
	resp   *domain.SearchResponse
	record *domain.CanonicalRecord
	err    error
}

func (s *stubSearchService) Search(_ context.Context, _ string, _ domain.SearchOptions) (*domain.SearchResponse, error) {
	return s.resp, s.err
}

func (s *stubSearchService) GetByID(_ context.Context, _ string) (*domain.CanonicalRecord, error) {
	return s.record, s.err
}

type stubImageService struct {
	img *domain.ResolvedImage
	err error
}

func (s *stubImageService) ResolveImage(_ context.Context, _ string, _ domain.ImageSize) (*domain.ResolvedImage, error) {
	return s.img, s.err
}

type stubHealthReporter struct {
	snap  domain.HealthSnapshot
	stats domain.CacheStats
}

func (s *stubHealthReporter) Snapshot() domain.HealthSnapshot { return s.snap }
func (s *stubHealthReporter) CacheStats() domain.CacheStats   { return s.stats }

// setupTestServices wires stub services into the command surface and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldSearch := searchService
	oldImage := imageService
	oldHealth := healthReporter
	oldServe := serveFunc

	year := 2010
	rating := 8.8
	record := domain.CanonicalRecord{
		ID:     "tt1375666",
		Title:  "Inception",
		Year:   &year,
		Rating: &rating,
		Genres: []string{"sci-fi", "thriller"},
		Plot:   "A thief steals secrets through dreams.",
		Image:  &domain.ImageRef{URL: "https://images.example.com/inception.jpg", Source: "omdb"},
		Provenance: domain.Provenance{
			LayerUsed:       domain.LayerLive,
			SourceName:      "omdb",
			ConfidenceScore: 0.9,
		},
	}

	searchService = &stubSearchService{
		resp: &domain.SearchResponse{
			Query:      "inception",
			Results:    []domain.CanonicalRecord{record},
			Provenance: domain.Provenance{LayerUsed: domain.LayerLive, SourceName: "omdb", LatencyMs: 42},
			ResolvedAt: time.Now(),
		},
		record: &record,
	}
	imageService = &stubImageService{
		img: &domain.ResolvedImage{
			Data:        []byte("<svg/>"),
			ContentType: "image/svg+xml",
			Generated:   true,
		},
	}
	healthReporter = &stubHealthReporter{
		snap: domain.HealthSnapshot{
			Adapters: map[string]domain.AdapterStatus{
				"omdb": {Name: "omdb", Tier: domain.TierPrimary, Healthy: true, CheckedAt: time.Now()},
			},
			TakenAt: time.Now(),
		},
		stats: domain.CacheStats{MemoryHits: 7, Misses: 3},
	}
	serveFunc = func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}

	return func() {
		searchService = oldSearch
		imageService = oldImage
		healthReporter = oldHealth
		serveFunc = oldServe
	}
}
