package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
	"github.com/Shubham12864/cinescope/internal/logger"
	"github.com/Shubham12864/cinescope/internal/normalizer"
)

// Orchestrator runs the live multi-source fan-out (Layer 3).
//
// Adapters are started in tier order with a grace window between tiers: the
// primary gets a head start, and lower tiers only spin up when the window
// elapses before the higher tiers have satisfied the request. A source
// failure never fails the request on its own; only all sources failing
// does.
type Orchestrator struct {
	adapters []driven.SourceAdapter
	health   *HealthService
	retry    RetryPolicy

	// globalSem caps in-flight adapter calls across all requests.
	globalSem *semaphore.Weighted

	graceWindow         time.Duration
	confidenceThreshold float64

	// onLateResult receives results from adapters that finished after the
	// request was already answered. Used to warm the instant cache.
	onLateResult func(source string, records []domain.CanonicalRecord)
}

// NewOrchestrator creates an orchestrator over the given adapters.
// Adapters are invoked in tier order regardless of slice order.
func NewOrchestrator(
	adapters []driven.SourceAdapter,
	health *HealthService,
	cfg domain.SourcesConfig,
) *Orchestrator {
	ordered := make([]driven.SourceAdapter, len(adapters))
	copy(ordered, adapters)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tier() < ordered[j].Tier()
	})

	concurrency := cfg.GlobalConcurrency
	if concurrency <= 0 {
		concurrency = 12
	}
	grace := cfg.GraceWindow
	if grace <= 0 {
		grace = 600 * time.Millisecond
	}
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = 0.5
	}

	return &Orchestrator{
		adapters:            ordered,
		health:              health,
		retry:               DefaultRetryPolicy,
		globalSem:           semaphore.NewWeighted(concurrency),
		graceWindow:         grace,
		confidenceThreshold: threshold,
	}
}

// SetLateResultHandler registers the callback for straggler results.
func (o *Orchestrator) SetLateResultHandler(fn func(source string, records []domain.CanonicalRecord)) {
	o.onLateResult = fn
}

// Resolution is the outcome of one fan-out.
type Resolution struct {
	// Records is the merged, ranked record list.
	Records []domain.CanonicalRecord

	// Provenance describes the resolution as a whole.
	Provenance domain.Provenance

	// SourceErrors holds per-adapter failures, keyed by adapter name.
	SourceErrors map[string]string
}

// sourceResult is one adapter's answer.
type sourceResult struct {
	adapter driven.SourceAdapter
	records []domain.CanonicalRecord
	err     error
	latency time.Duration
}

// Resolve fans the query out across the adapter tiers and merges the
// answers. Limit bounds how many confident results satisfy the request;
// the returned list may be longer, callers truncate after filtering.
func (o *Orchestrator) Resolve(ctx context.Context, query string, constraints domain.SourceConstraints, limit int) (*Resolution, error) {
	if limit <= 0 {
		limit = 10
	}
	start := time.Now()
	snapshot := o.health.Snapshot()

	var runnable []driven.SourceAdapter
	sourceErrors := make(map[string]string)
	for _, a := range o.adapters {
		if !snapshot.Usable(a.Name()) {
			sourceErrors[a.Name()] = domain.ErrAdapterDisabled.Error()
			continue
		}
		runnable = append(runnable, a)
	}
	if len(runnable) == 0 {
		return nil, domain.ErrAllSourcesFailed
	}

	logger.Section("Live Resolution")
	logger.Debug("Query: %q, adapters: %d, grace window: %s", query, len(runnable), o.graceWindow)

	// Buffered so stragglers never block after the request returns.
	results := make(chan sourceResult, len(runnable))

	// stageCtx gates adapters that have not started yet. A satisfied
	// request cancels it, so tiers still waiting on their grace window are
	// never invoked, while fetches already in flight keep running on the
	// detached context and can still warm the cache.
	stageCtx, stageCancel := context.WithCancel(ctx)
	defer stageCancel()

	gates := newStageGates(runnable)
	fetchCtx := context.WithoutCancel(ctx)
	for _, a := range runnable {
		go o.fetchOne(stageCtx, fetchCtx, gates, a, query, constraints, results)
	}

	byName := make(map[string]sourceResult, len(runnable))
	pending := len(runnable)

	for pending > 0 {
		select {
		case <-ctx.Done():
			go o.drainLate(results, pending, byName)
			return nil, ctx.Err()

		case res := <-results:
			pending--
			byName[res.adapter.Name()] = res
			if res.err != nil {
				sourceErrors[res.adapter.Name()] = res.err.Error()
				logger.Debug("Source %s failed: %v", res.adapter.Name(), res.err)
				if domain.IsUnauthorized(res.err) {
					o.health.Disable(res.adapter.Name())
				}
			} else {
				logger.Debug("Source %s answered with %d records in %s",
					res.adapter.Name(), len(res.records), res.latency)
			}

			if pending > 0 && o.satisfied(byName, runnable, limit) {
				logger.Debug("Short-circuiting with %d sources still pending", pending)
				stageCancel()
				go o.drainLate(results, pending, byName)
				pending = 0
				continue
			}

			// A tier that came up short releases the next tier early
			// instead of letting its grace window run out.
			gates.tierDone(res.adapter.Tier())
		}
	}

	merged := o.merge(byName)

	succeeded := 0
	for _, res := range byName {
		if res.err == nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		return &Resolution{SourceErrors: sourceErrors}, domain.ErrAllSourcesFailed
	}

	return &Resolution{
		Records:      merged,
		Provenance:   o.overallProvenance(byName, merged, start),
		SourceErrors: sourceErrors,
	}, nil
}

// ResolveByID asks the adapters for one record in tier order and returns
// the first answer.
func (o *Orchestrator) ResolveByID(ctx context.Context, id string) (*domain.CanonicalRecord, error) {
	snapshot := o.health.Snapshot()

	start := time.Now()
	failures := 0
	attempts := 0

	for _, a := range o.adapters {
		if !snapshot.Usable(a.Name()) {
			continue
		}
		attempts++

		callCtx, cancel := context.WithTimeout(ctx, a.Timeout())
		candidate, err := a.FetchByID(callCtx, id)
		cancel()

		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			failures++
			logger.Debug("Source %s id lookup failed: %v", a.Name(), err)
			if domain.IsUnauthorized(err) {
				o.health.Disable(a.Name())
			}
			continue
		}

		record, err := normalizer.Normalize(*candidate)
		if err != nil {
			failures++
			continue
		}
		record = record.WithProvenance(domain.Provenance{
			LayerUsed:       domain.LayerLive,
			SourceName:      a.Name(),
			LatencyMs:       time.Since(start).Milliseconds(),
			ConfidenceScore: candidate.Confidence,
		})
		return &record, nil
	}

	// Every consulted adapter failing is an outage; at least one clean
	// "don't know this id" makes the answer a legitimate not-found.
	if attempts == 0 || failures == attempts {
		return nil, domain.ErrAllSourcesFailed
	}
	return nil, domain.ErrNotFound
}

// fetchOne waits for the adapter's stage, honors the global concurrency
// budget, runs the fetch with retry and normalizes the answer.
//
// The stage wait and the budget wait run under stageCtx so a satisfied
// request aborts adapters that never started; the fetch itself runs under
// the detached fetchCtx so started calls finish and warm the cache.
func (o *Orchestrator) fetchOne(
	stageCtx, fetchCtx context.Context,
	gates *stageGates,
	adapter driven.SourceAdapter,
	query string,
	constraints domain.SourceConstraints,
	results chan<- sourceResult,
) {
	// Stage delay: each tier below the first waits one more grace window,
	// unless the tiers above it drain early.
	if delay := time.Duration(adapter.Tier()) * o.graceWindow; delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-stageCtx.Done():
			results <- sourceResult{adapter: adapter, err: stageCtx.Err()}
			return
		case <-timer.C:
		case <-gates.opened(adapter.Tier()):
		}
	}

	if err := o.globalSem.Acquire(stageCtx, 1); err != nil {
		results <- sourceResult{adapter: adapter, err: err}
		return
	}
	defer o.globalSem.Release(1)

	start := time.Now()
	candidates, err := o.retry.fetchWithRetry(fetchCtx, adapter, query, constraints)
	if err != nil {
		results <- sourceResult{adapter: adapter, err: err, latency: time.Since(start)}
		return
	}

	results <- sourceResult{
		adapter: adapter,
		records: normalizer.NormalizeAll(candidates),
		latency: time.Since(start),
	}
}

// stageGates release lower tiers early when every tier above them has
// already answered. The first tier present is open from the start; each
// other tier opens when all higher tiers have drained, or when its grace
// window elapses (handled by the timer in fetchOne).
type stageGates struct {
	mu      sync.Mutex
	order   []domain.SourceTier
	pending map[domain.SourceTier]int
	gates   map[domain.SourceTier]chan struct{}
	open    map[domain.SourceTier]bool
}

func newStageGates(adapters []driven.SourceAdapter) *stageGates {
	g := &stageGates{
		pending: make(map[domain.SourceTier]int),
		gates:   make(map[domain.SourceTier]chan struct{}),
		open:    make(map[domain.SourceTier]bool),
	}
	for _, a := range adapters {
		g.pending[a.Tier()]++
	}
	for tier := range g.pending {
		g.order = append(g.order, tier)
		g.gates[tier] = make(chan struct{})
	}
	sort.Slice(g.order, func(i, j int) bool { return g.order[i] < g.order[j] })

	g.open[g.order[0]] = true
	close(g.gates[g.order[0]])
	return g
}

// opened returns a channel closed once the tier may start.
func (g *stageGates) opened(tier domain.SourceTier) <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gates[tier]
}

// tierDone records one finished adapter and opens the tiers whose
// predecessors have all drained.
func (g *stageGates) tierDone(tier domain.SourceTier) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending[tier] > 0 {
		g.pending[tier]--
	}

	drained := true
	for _, t := range g.order {
		if !drained {
			return
		}
		if !g.open[t] {
			g.open[t] = true
			close(g.gates[t])
		}
		drained = g.pending[t] == 0
	}
}

// satisfied reports whether the request can short-circuit: the highest
// runnable tier has answered one way or the other, and the confident
// results gathered so far cover the limit.
func (o *Orchestrator) satisfied(byName map[string]sourceResult, runnable []driven.SourceAdapter, limit int) bool {
	confident := 0
	topTier := runnable[0].Tier()
	for _, a := range runnable {
		res, done := byName[a.Name()]
		if a.Tier() == topTier && !done {
			return false
		}
		if !done || res.err != nil {
			continue
		}
		for _, r := range res.records {
			if r.Provenance.ConfidenceScore >= o.confidenceThreshold {
				confident++
			}
		}
	}
	return confident >= limit
}

// drainLate consumes straggler results after the request returned, feeding
// successful ones to the late-result handler.
func (o *Orchestrator) drainLate(results <-chan sourceResult, pending int, already map[string]sourceResult) {
	for i := 0; i < pending; i++ {
		res := <-results
		if _, seen := already[res.adapter.Name()]; seen {
			continue
		}
		if res.err != nil {
			if domain.IsUnauthorized(res.err) {
				o.health.Disable(res.adapter.Name())
			}
			continue
		}
		logger.Debug("Late result from %s with %d records", res.adapter.Name(), len(res.records))
		if o.onLateResult != nil && len(res.records) > 0 {
			o.onLateResult(res.adapter.Name(), res.records)
		}
	}
}

// merge deduplicates records across sources and ranks them.
//
// Duplicate ids resolve priority-wins: the record from the highest tier is
// kept wholesale, and only its empty fields are filled from lower-tier
// duplicates. Ranking is deterministic so identical inputs always produce
// identical output order.
func (o *Orchestrator) merge(byName map[string]sourceResult) []domain.CanonicalRecord {
	type ranked struct {
		record domain.CanonicalRecord
		tier   domain.SourceTier
	}

	seen := make(map[string]int)
	var out []ranked

	// Tier order: o.adapters is already sorted.
	for _, a := range o.adapters {
		res, ok := byName[a.Name()]
		if !ok || res.err != nil {
			continue
		}
		for _, r := range res.records {
			r.Provenance.LayerUsed = domain.LayerLive
			r.Provenance.LatencyMs = res.latency.Milliseconds()

			idx, dup := seen[r.ID]
			if !dup {
				seen[r.ID] = len(out)
				out = append(out, ranked{record: r, tier: a.Tier()})
				continue
			}
			out[idx].record = fillMissing(out[idx].record, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.record.Provenance.ConfidenceScore != b.record.Provenance.ConfidenceScore {
			return a.record.Provenance.ConfidenceScore > b.record.Provenance.ConfidenceScore
		}
		ar, br := ratingOrZero(a.record), ratingOrZero(b.record)
		if ar != br {
			return ar > br
		}
		return a.record.ID < b.record.ID
	})

	records := make([]domain.CanonicalRecord, len(out))
	for i, r := range out {
		records[i] = r.record
	}
	return records
}

// fillMissing completes the winner's empty fields from a lower-priority
// duplicate without overriding anything the winner already has.
func fillMissing(winner, other domain.CanonicalRecord) domain.CanonicalRecord {
	if winner.Year == nil {
		winner.Year = other.Year
	}
	if winner.Rating == nil {
		winner.Rating = other.Rating
	}
	if winner.Plot == "" {
		winner.Plot = other.Plot
	}
	if len(winner.Genres) == 0 {
		winner.Genres = other.Genres
	}
	winner.ImageCandidates = append(winner.ImageCandidates, other.ImageCandidates...)
	return winner
}

func ratingOrZero(r domain.CanonicalRecord) float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// overallProvenance names the highest tier that contributed results.
func (o *Orchestrator) overallProvenance(byName map[string]sourceResult, merged []domain.CanonicalRecord, start time.Time) domain.Provenance {
	p := domain.Provenance{
		LayerUsed: domain.LayerLive,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	for _, a := range o.adapters {
		res, ok := byName[a.Name()]
		if ok && res.err == nil && len(res.records) > 0 {
			p.SourceName = a.Name()
			break
		}
	}
	if len(merged) > 0 {
		p.ConfidenceScore = merged[0].Provenance.ConfidenceScore
	}
	return p
}
