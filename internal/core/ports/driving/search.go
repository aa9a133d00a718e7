package driving

import (
	"context"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// SearchService is the primary data entry point consumed by the HTTP API
// and the CLI.
type SearchService interface {
	// Search resolves a query into ranked canonical records.
	// No matches yields an empty Results slice and a nil error; only a
	// total upstream outage yields domain.ErrAllSourcesFailed.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// GetByID resolves a single record by its stable id.
	// Returns domain.ErrNotFound when no source knows the id.
	GetByID(ctx context.Context, id string) (*domain.CanonicalRecord, error)
}

// ImageService resolves image references into servable bytes. It behaves
// identically whether invoked inline during search hydration or as a
// standalone call from the image endpoint.
type ImageService interface {
	// ResolveImage returns binary image content for a record id or a
	// previously validated URL. Failures degrade to a generated
	// placeholder; only storage-level faults surface as errors.
	ResolveImage(ctx context.Context, urlOrID string, size domain.ImageSize) (*domain.ResolvedImage, error)
}

// PrefetchEngine is the background cache-warming engine.
type PrefetchEngine interface {
	// Observe feeds one query event into pattern tracking.
	// Never blocks the caller; events may be dropped under backpressure.
	Observe(event domain.QueryEvent)

	// Start runs the engine loops until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop shuts the engine down and waits for in-flight jobs.
	Stop() error
}

// HealthReporter exposes the current adapter health snapshot and cache
// statistics for the health endpoint.
type HealthReporter interface {
	// Snapshot returns the most recent immutable health snapshot.
	Snapshot() domain.HealthSnapshot

	// CacheStats returns cumulative instant-cache counters.
	CacheStats() domain.CacheStats
}
