package domain

// RawCandidate is a single candidate emitted by a source adapter after
// decoding the provider payload through its typed schema. Field values are
// kept as the provider sent them; the normalizer owns all coercion.
type RawCandidate struct {
	// Source is the adapter name that produced the candidate.
	Source string

	// UpstreamID is the provider's stable identifier, empty when the
	// provider has none.
	UpstreamID string

	// Title is the raw title string.
	Title string

	// Year is the raw year value ("2010", "2010–2012", "N/A", ...).
	Year string

	// Genres is the raw delimited genre string ("Action, Sci-Fi").
	Genres string

	// Rating is the raw rating value ("8.8", "N/A", ...).
	Rating string

	// Plot is the raw synopsis.
	Plot string

	// ImageURLs are candidate artwork URLs in provider preference order.
	ImageURLs []string

	// Confidence is the adapter's confidence in this candidate, in [0,1].
	Confidence float64
}

// SourceTier orders adapters by priority and cost.
type SourceTier int

// Adapter tiers, highest priority first.
const (
	// TierPrimary is the structured API provider.
	TierPrimary SourceTier = iota

	// TierSecondary is the targeted scrape provider.
	TierSecondary

	// TierTertiary is the broad scrape provider.
	TierTertiary
)

// String returns the tier name.
func (t SourceTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
