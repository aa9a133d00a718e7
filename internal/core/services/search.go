package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driving"
	"github.com/Shubham12864/cinescope/internal/logger"
)

// Ensure SearchService implements the interfaces.
var (
	_ driving.SearchService  = (*SearchService)(nil)
	_ driving.HealthReporter = (*SearchService)(nil)
)

// SearchService is the resolution front door. Every lookup walks the same
// path: instant cache, then a single-flight live fan-out, with the answer
// cached for the next caller and every record leaving with a usable image
// reference.
type SearchService struct {
	cache        *InstantCache
	orchestrator *Orchestrator
	images       *ImageService
	health       *HealthService

	// observe feeds query events to the prefetch engine. Optional.
	observe func(domain.QueryEvent)

	cacheCfg domain.CacheConfig
}

// NewSearchService creates the resolution facade and wires the late-result
// path: stragglers from a short-circuited fan-out warm per-record entries.
func NewSearchService(
	cache *InstantCache,
	orchestrator *Orchestrator,
	images *ImageService,
	health *HealthService,
	cacheCfg domain.CacheConfig,
) *SearchService {
	s := &SearchService{
		cache:        cache,
		orchestrator: orchestrator,
		images:       images,
		health:       health,
		cacheCfg:     cacheCfg,
	}

	orchestrator.SetLateResultHandler(s.warmRecords)
	return s
}

// SetObserver registers the prefetch event sink.
func (s *SearchService) SetObserver(observe func(domain.QueryEvent)) {
	s.observe = observe
}

// Search resolves a query into ranked canonical records.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	raw := query
	normalized := domain.NormalizeQuery(query)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	logger.Section("Search")
	logger.Debug("Query: %q (normalized %q), limit %d", raw, normalized, limit)

	key := domain.SearchKey(normalized)

	var sourceErrors map[string]string
	entry, fromCache, err := s.cache.GetOrResolve(ctx, key, func(ctx context.Context) (*domain.CacheEntry, error) {
		res, err := s.orchestrator.Resolve(ctx, normalized, domain.SourceConstraints{Limit: limit}, limit)
		if err != nil {
			if res != nil {
				sourceErrors = res.SourceErrors
			}
			return nil, err
		}
		sourceErrors = res.SourceErrors

		now := time.Now().UTC()
		return &domain.CacheEntry{
			Key:        key,
			Kind:       domain.EntrySearch,
			Records:    res.Records,
			Provenance: res.Provenance,
			InsertedAt: now,
			ExpiresAt:  now.Add(s.cacheCfg.SearchTTL),
		}, nil
	})
	if err != nil {
		s.emit(raw, domain.OutcomeFailed)
		return nil, err
	}

	results := filterRecords(entry.Records, opts)
	if len(results) > limit {
		results = results[:limit]
	}
	s.hydrateImages(ctx, results)

	provenance := entry.Provenance
	if fromCache {
		if provenance.LayerUsed != domain.LayerPrefetch {
			provenance.LayerUsed = domain.LayerInstant
		}
		s.emit(raw, domain.OutcomeHit)
	} else if len(results) == 0 {
		s.emit(raw, domain.OutcomeEmpty)
	} else {
		s.emit(raw, domain.OutcomeResolved)
	}

	logger.Debug("Answered %q from layer %s with %d results", raw, provenance.LayerUsed, len(results))

	return &domain.SearchResponse{
		Query:        raw,
		Results:      results,
		Provenance:   provenance,
		SourceErrors: sourceErrors,
		ResolvedAt:   time.Now().UTC(),
	}, nil
}

// GetByID resolves a single record by its stable id.
func (s *SearchService) GetByID(ctx context.Context, id string) (*domain.CanonicalRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrInvalidInput)
	}

	key := domain.RecordKey(id)

	entry, fromCache, err := s.cache.GetOrResolve(ctx, key, func(ctx context.Context) (*domain.CacheEntry, error) {
		record, err := s.orchestrator.ResolveByID(ctx, id)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		return &domain.CacheEntry{
			Key:        key,
			Kind:       domain.EntryRecord,
			Records:    []domain.CanonicalRecord{*record},
			Provenance: record.Provenance,
			InsertedAt: now,
			ExpiresAt:  now.Add(s.cacheCfg.RecordTTL),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(entry.Records) == 0 {
		return nil, domain.ErrNotFound
	}

	record := entry.Records[0]
	if fromCache && record.Provenance.LayerUsed != domain.LayerPrefetch {
		record.Provenance.LayerUsed = domain.LayerInstant
	}
	if !record.HasUsableImage() {
		record = record.WithImage(s.images.RecordRef(ctx, &record))
	}
	return &record, nil
}

// WarmQuery force-refreshes the cached answer for a normalized query.
// Used by the prefetch engine; the entry is marked as prefetch-warmed so a
// later hit reports Layer 2.
func (s *SearchService) WarmQuery(ctx context.Context, query string) error {
	normalized := domain.NormalizeQuery(query)
	if normalized == "" {
		return fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	res, err := s.orchestrator.Resolve(ctx, normalized, domain.SourceConstraints{Limit: 10}, 10)
	if err != nil {
		return err
	}

	provenance := res.Provenance
	provenance.LayerUsed = domain.LayerPrefetch

	now := time.Now().UTC()
	return s.cache.Put(ctx, &domain.CacheEntry{
		Key:        domain.SearchKey(normalized),
		Kind:       domain.EntrySearch,
		Records:    res.Records,
		Provenance: provenance,
		InsertedAt: now,
		ExpiresAt:  now.Add(s.cacheCfg.SearchTTL),
	})
}

// Snapshot returns the most recent adapter health snapshot.
func (s *SearchService) Snapshot() domain.HealthSnapshot {
	return s.health.Snapshot()
}

// CacheStats returns cumulative instant-cache counters.
func (s *SearchService) CacheStats() domain.CacheStats {
	return s.cache.Stats()
}

// warmRecords caches per-record entries for straggler results.
func (s *SearchService) warmRecords(source string, records []domain.CanonicalRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	for _, record := range records {
		record.Provenance.LayerUsed = domain.LayerLive
		err := s.cache.Put(ctx, &domain.CacheEntry{
			Key:        domain.RecordKey(record.ID),
			Kind:       domain.EntryRecord,
			Records:    []domain.CanonicalRecord{record},
			Provenance: record.Provenance,
			InsertedAt: now,
			ExpiresAt:  now.Add(s.cacheCfg.RecordTTL),
		})
		if err != nil {
			logger.Debug("Warming record %s from %s failed: %v", record.ID, source, err)
			return
		}
	}
	logger.Debug("Warmed %d records from late %s results", len(records), source)
}

// hydrateImages guarantees every record carries a usable image reference.
func (s *SearchService) hydrateImages(ctx context.Context, records []domain.CanonicalRecord) {
	for i := range records {
		if records[i].HasUsableImage() {
			continue
		}
		records[i] = records[i].WithImage(s.images.RecordRef(ctx, &records[i]))
	}
}

// emit sends a query event to the prefetch engine, if one is attached.
func (s *SearchService) emit(raw string, outcome domain.QueryOutcome) {
	if s.observe == nil {
		return
	}
	s.observe(domain.QueryEvent{
		RawQuery:  raw,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
	})
}

// filterRecords applies the option filters to the cached record list.
func filterRecords(records []domain.CanonicalRecord, opts domain.SearchOptions) []domain.CanonicalRecord {
	out := make([]domain.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if opts.YearFrom != nil && (r.Year == nil || *r.Year < *opts.YearFrom) {
			continue
		}
		if opts.YearTo != nil && (r.Year == nil || *r.Year > *opts.YearTo) {
			continue
		}
		if opts.Genre != "" && !hasGenre(r.Genres, opts.Genre) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func hasGenre(genres []string, want string) bool {
	for _, g := range genres {
		if strings.EqualFold(g, want) {
			return true
		}
	}
	return false
}
