package driven

import (
	"context"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// SourceAdapter wraps one external movie data provider.
// Each adapter (omdb, cinemeta, crawlix) implements this interface.
//
// Adapters convert every failure into a typed *domain.AdapterError; they
// never let a provider failure escape untyped, and never panic through to
// the orchestrator. Rate limiting is handled inside the adapter: Fetch
// blocks on the adapter's token bucket before touching the provider.
type SourceAdapter interface {
	// Name returns the adapter identifier ("omdb", "cinemeta", "crawlix").
	Name() string

	// Tier returns the adapter's priority tier.
	Tier() domain.SourceTier

	// Timeout returns the tier-specific per-call timeout the orchestrator
	// should apply around Fetch.
	Timeout() time.Duration

	// Fetch returns candidates matching the query. Malformed individual
	// records are skipped, not fatal; an empty slice with a nil error is a
	// legitimate "no matches" answer.
	Fetch(ctx context.Context, query string, constraints domain.SourceConstraints) ([]domain.RawCandidate, error)

	// FetchByID fetches a single candidate by its upstream identifier.
	// Adapters without id lookup return domain.ErrNotFound.
	FetchByID(ctx context.Context, id string) (*domain.RawCandidate, error)

	// Probe performs a lightweight availability check for the health loop.
	Probe(ctx context.Context) error
}
