package driven

import (
	"context"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// PatternStore persists query demand statistics for the prefetch engine.
type PatternStore interface {
	// Get returns the pattern for a normalized query.
	// Returns domain.ErrNotFound when the query has never been observed.
	Get(ctx context.Context, normalized string) (*domain.QueryPattern, error)

	// Upsert inserts or replaces the pattern keyed by NormalizedQuery.
	Upsert(ctx context.Context, pattern *domain.QueryPattern) error

	// List returns patterns with Frequency >= minFrequency, most frequent
	// first.
	List(ctx context.Context, minFrequency int64) ([]domain.QueryPattern, error)

	// Decay halves the frequency of patterns not seen since the cutoff and
	// drops those that reach zero, returning how many rows were touched.
	Decay(ctx context.Context, notSeenSince time.Time) (int, error)

	// Close releases the underlying storage.
	Close() error
}
