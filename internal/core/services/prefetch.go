package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
	"github.com/Shubham12864/cinescope/internal/core/ports/driving"
	"github.com/Shubham12864/cinescope/internal/logger"
)

// Ensure PrefetchService implements the interface.
var _ driving.PrefetchEngine = (*PrefetchService)(nil)

// eventBuffer bounds the Observe channel. Events past the buffer are
// dropped; pattern tracking is statistical, losing one observation under
// burst load is fine.
const eventBuffer = 256

// schedulerTick is how often the scheduler looks for work. Kept short
// relative to RefreshLead so hot entries are caught well before expiry.
const schedulerTick = time.Minute

// PrefetchService is the predictive Layer 2 engine. It tracks query demand
// patterns, refreshes hot cache entries before they expire and boosts the
// seasonal watchlist, all without ever blocking a live request.
type PrefetchService struct {
	patterns driven.PatternStore
	cache    *InstantCache

	// warm resolves a query and writes the answer to the instant cache.
	// Injected by the composition root so the engine shares the live
	// resolution path without owning it.
	warm func(ctx context.Context, query string) error

	events chan domain.QueryEvent

	mu  sync.RWMutex
	cfg domain.PrefetchConfig

	// recent is the previous normalized query, used to link variants.
	recent string

	// scheduled de-duplicates in-flight jobs by query.
	scheduledMu sync.Mutex
	scheduled   map[string]struct{}

	workerSem *semaphore.Weighted

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPrefetchService creates the prefetch engine.
func NewPrefetchService(
	patterns driven.PatternStore,
	cache *InstantCache,
	cfg domain.PrefetchConfig,
	warm func(ctx context.Context, query string) error,
) *PrefetchService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	return &PrefetchService{
		patterns:  patterns,
		cache:     cache,
		warm:      warm,
		cfg:       cfg,
		events:    make(chan domain.QueryEvent, eventBuffer),
		scheduled: make(map[string]struct{}),
		workerSem: semaphore.NewWeighted(workers),
	}
}

// UpdateConfig swaps the engine configuration. Called on hot reload; the
// watchlist and thresholds take effect at the next scheduler tick.
func (s *PrefetchService) UpdateConfig(cfg domain.PrefetchConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	logger.Debug("Prefetch config updated: %d watchlist entries", len(cfg.Watchlist))
}

// Observe feeds one query event into pattern tracking. Never blocks; under
// backpressure the event is dropped.
func (s *PrefetchService) Observe(event domain.QueryEvent) {
	select {
	case s.events <- event:
	default:
	}
}

// Start runs the engine loops until ctx is cancelled or Stop is called.
func (s *PrefetchService) Start(ctx context.Context) error {
	s.mu.RLock()
	enabled := s.cfg.Enabled
	s.mu.RUnlock()
	if !enabled {
		logger.Info("Prefetch engine disabled by configuration")
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(3)
	go s.trackLoop(ctx)
	go s.scheduleLoop(ctx)
	go s.decayLoop(ctx)

	logger.Debug("Prefetch engine started")
	return nil
}

// Stop shuts the engine down and waits for in-flight jobs.
func (s *PrefetchService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

// trackLoop consumes observed events into the pattern store.
func (s *PrefetchService) trackLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.events:
			s.track(ctx, event)
		}
	}
}

// track records one observation, bumping frequency and linking variants.
func (s *PrefetchService) track(ctx context.Context, event domain.QueryEvent) {
	normalized := domain.NormalizeQuery(event.RawQuery)
	if normalized == "" {
		return
	}
	when := event.Timestamp
	if when.IsZero() {
		when = time.Now().UTC()
	}

	pattern, err := s.patterns.Get(ctx, normalized)
	if err != nil {
		pattern = &domain.QueryPattern{
			RawQuery:        event.RawQuery,
			NormalizedQuery: normalized,
		}
	}
	pattern.Frequency++
	pattern.LastSeen = when
	pattern.RawQuery = event.RawQuery

	if err := s.patterns.Upsert(ctx, pattern); err != nil {
		logger.Warn("Pattern upsert failed for %q: %v", normalized, err)
	}

	// Link refinements: "inception 2" observed right after "inception"
	// becomes a variant of the broader query.
	s.mu.Lock()
	prev := s.recent
	s.recent = normalized
	s.mu.Unlock()

	if prev != "" && prev != normalized && strings.HasPrefix(normalized, prev+" ") {
		parent, err := s.patterns.Get(ctx, prev)
		if err == nil && parent.RecordVariant(normalized) {
			if err := s.patterns.Upsert(ctx, parent); err != nil {
				logger.Warn("Variant upsert failed for %q: %v", prev, err)
			}
		}
	}
}

// scheduleLoop periodically turns demand patterns into prefetch jobs.
func (s *PrefetchService) scheduleLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(schedulerTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.schedule(ctx)
		}
	}
}

// schedule builds this tick's job list from hot patterns and the seasonal
// watchlist, then dispatches the jobs onto the worker pool.
func (s *PrefetchService) schedule(ctx context.Context) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	now := time.Now().UTC()
	var jobs []domain.PrefetchJob

	patterns, err := s.patterns.List(ctx, cfg.FrequencyThreshold)
	if err != nil {
		logger.Warn("Pattern listing failed: %v", err)
	}
	for _, p := range patterns {
		if reason, ok := s.needsRefresh(p.NormalizedQuery, cfg.RefreshLead, now); ok {
			jobs = append(jobs, domain.PrefetchJob{
				ID:          uuid.New().String(),
				Query:       p.NormalizedQuery,
				Reason:      reason,
				ScheduledAt: now,
			})
		}
		for _, v := range p.Variants {
			if _, ok := s.needsRefresh(v, cfg.RefreshLead, now); ok {
				jobs = append(jobs, domain.PrefetchJob{
					ID:          uuid.New().String(),
					Query:       v,
					Reason:      "variant",
					ScheduledAt: now,
				})
			}
		}
	}

	for _, entry := range cfg.Watchlist {
		if !entry.Active(now) {
			continue
		}
		normalized := domain.NormalizeQuery(entry.Query)
		if _, ok := s.needsRefresh(normalized, cfg.RefreshLead, now); ok {
			jobs = append(jobs, domain.PrefetchJob{
				ID:          uuid.New().String(),
				Query:       normalized,
				Reason:      "seasonal",
				ScheduledAt: now,
			})
		}
	}

	for _, job := range jobs {
		s.dispatch(ctx, job)
	}
}

// needsRefresh reports whether the cache entry for the query is missing or
// expires within the refresh lead, and why.
func (s *PrefetchService) needsRefresh(normalized string, lead time.Duration, now time.Time) (string, bool) {
	entry, ok := s.cache.Peek(domain.SearchKey(normalized))
	if !ok {
		return "frequency", true
	}
	if entry.ExpiresAt.Sub(now) <= lead {
		return "expiring", true
	}
	return "", false
}

// dispatch runs one job on the worker pool, skipping queries that already
// have a job in flight.
func (s *PrefetchService) dispatch(ctx context.Context, job domain.PrefetchJob) {
	s.scheduledMu.Lock()
	if _, inFlight := s.scheduled[job.Query]; inFlight {
		s.scheduledMu.Unlock()
		return
	}
	s.scheduled[job.Query] = struct{}{}
	s.scheduledMu.Unlock()

	if err := s.workerSem.Acquire(ctx, 1); err != nil {
		s.clearScheduled(job.Query)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.workerSem.Release(1)
		defer s.clearScheduled(job.Query)

		logger.Debug("Prefetch job %s: %q (%s)", job.ID, job.Query, job.Reason)
		if err := s.warm(ctx, job.Query); err != nil {
			logger.Debug("Prefetch job %s failed: %v", job.ID, err)
		}
	}()
}

func (s *PrefetchService) clearScheduled(query string) {
	s.scheduledMu.Lock()
	delete(s.scheduled, query)
	s.scheduledMu.Unlock()
}

// decayLoop halves stale pattern frequencies so yesterday's fads stop
// claiming prefetch budget.
func (s *PrefetchService) decayLoop(ctx context.Context) {
	defer s.wg.Done()

	s.mu.RLock()
	interval := s.cfg.DecayInterval
	s.mu.RUnlock()
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-interval)
			n, err := s.patterns.Decay(ctx, cutoff)
			if err != nil {
				logger.Warn("Pattern decay failed: %v", err)
				continue
			}
			if n > 0 {
				logger.Debug("Decayed %d query patterns", n)
			}
		}
	}
}
