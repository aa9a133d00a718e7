package domain

import "time"

// QueryOutcome classifies how a query resolution ended, for pattern tracking.
type QueryOutcome string

// Query outcomes.
const (
	// OutcomeHit means the query was answered from Layer 1.
	OutcomeHit QueryOutcome = "hit"

	// OutcomeResolved means the query was answered by a live fan-out.
	OutcomeResolved QueryOutcome = "resolved"

	// OutcomeEmpty means the query legitimately matched nothing.
	OutcomeEmpty QueryOutcome = "empty"

	// OutcomeFailed means every source failed for the query.
	OutcomeFailed QueryOutcome = "failed"
)

// QueryEvent is one observed query, consumed by the prefetch engine.
// Events are emitted for every incoming query, success or failure.
type QueryEvent struct {
	// RawQuery is the query as the caller sent it.
	RawQuery string

	// Outcome is how the resolution ended.
	Outcome QueryOutcome

	// Timestamp is when the query was observed.
	Timestamp time.Time
}

// QueryPattern aggregates demand statistics for one normalized query.
type QueryPattern struct {
	// RawQuery is a representative raw form of the query.
	RawQuery string

	// NormalizedQuery is the canonical key the statistics aggregate under.
	NormalizedQuery string

	// Frequency counts observations. Monotonically non-decreasing until
	// an explicit decay sweep.
	Frequency int64

	// LastSeen is the most recent observation time.
	LastSeen time.Time

	// Variants are distinct normalized queries independently observed
	// alongside this one (e.g. "inception 2" after "inception"). Variants
	// are never guessed from a static list.
	Variants []string
}

// RecordVariant adds a variant query if it is new and not the pattern itself.
// Returns true when the variant list changed.
func (p *QueryPattern) RecordVariant(normalized string) bool {
	if normalized == "" || normalized == p.NormalizedQuery {
		return false
	}
	for _, v := range p.Variants {
		if v == normalized {
			return false
		}
	}
	p.Variants = append(p.Variants, normalized)
	return true
}

// PrefetchJob is one scheduled background warm-up of the instant cache.
type PrefetchJob struct {
	// ID uniquely identifies the job.
	ID string

	// Query is the normalized query to refresh.
	Query string

	// Reason explains why the job was scheduled ("frequency", "variant",
	// "seasonal", "expiring").
	Reason string

	// ScheduledAt is when the job was enqueued.
	ScheduledAt time.Time
}
