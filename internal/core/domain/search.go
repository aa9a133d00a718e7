package domain

import "time"

// ResolutionLayer identifies which pipeline layer answered a request.
type ResolutionLayer int

// Pipeline layers.
const (
	// LayerInstant is the two-tier cache (Layer 1).
	LayerInstant ResolutionLayer = 1

	// LayerPrefetch marks a cache hit warmed by the prefetch engine (Layer 2).
	LayerPrefetch ResolutionLayer = 2

	// LayerLive is the live multi-source fan-out (Layer 3).
	LayerLive ResolutionLayer = 3
)

// String returns a human-readable layer name.
func (l ResolutionLayer) String() string {
	switch l {
	case LayerInstant:
		return "instant-cache"
	case LayerPrefetch:
		return "prefetch"
	case LayerLive:
		return "live"
	default:
		return "unknown"
	}
}

// Provenance describes which layer and source produced a result,
// with what confidence and latency.
type Provenance struct {
	// LayerUsed is the pipeline layer that answered (1, 2 or 3).
	LayerUsed ResolutionLayer `json:"layerUsed"`

	// SourceName is the adapter that produced the result.
	SourceName string `json:"sourceName"`

	// LatencyMs is how long the resolution took.
	LatencyMs int64 `json:"latencyMs"`

	// ConfidenceScore is the adapter-assigned confidence in [0,1].
	ConfidenceScore float64 `json:"confidenceScore"`
}

// SearchOptions configures a search request.
type SearchOptions struct {
	// Limit is the maximum number of results. Defaults to 10.
	Limit int

	// YearFrom filters out records older than the given year when set.
	YearFrom *int

	// YearTo filters out records newer than the given year when set.
	YearTo *int

	// Genre filters to records carrying the given genre when non-empty.
	Genre string
}

// SearchResponse is the result of a resolved search.
type SearchResponse struct {
	// Query is the raw query as received.
	Query string `json:"query"`

	// Results is the ranked record list. Empty means "no matches",
	// which is a legitimate answer, not an error.
	Results []CanonicalRecord `json:"results"`

	// Provenance describes how the response as a whole was produced.
	Provenance Provenance `json:"provenance"`

	// SourceErrors records per-adapter failures absorbed during
	// resolution, keyed by adapter name.
	SourceErrors map[string]string `json:"sourceErrors,omitempty"`

	// ResolvedAt is when the response was produced.
	ResolvedAt time.Time `json:"resolvedAt"`
}

// SourceConstraints narrows what an adapter should fetch.
type SourceConstraints struct {
	// Limit caps how many candidates the adapter should return.
	Limit int

	// Year restricts the fetch to a release year when set.
	Year *int
}
