package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// CanonicalRecord is the normalized, source-agnostic movie representation.
//
// Records are immutable once constructed by the normalizer: an update
// produces a new value (see WithImage), never an in-place mutation. Two
// records sharing an ID describe the same entity regardless of which
// provider produced them.
type CanonicalRecord struct {
	// ID is the stable, source-independent identifier. Either the upstream
	// IMDb-style id, or a deterministic hash of (title, year).
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Year is the release year, nil when the provider had no usable value.
	Year *int `json:"year"`

	// Genres is the split, deduplicated genre list.
	Genres []string `json:"genres"`

	// Rating is the numeric rating on a 0-10 scale, nil when absent.
	Rating *float64 `json:"rating"`

	// Plot is the synopsis, empty when the provider had none.
	Plot string `json:"plot"`

	// Image is the resolved image reference. It is nil only between
	// normalization and the image pipeline; records returned to callers
	// always carry a reference.
	Image *ImageRef `json:"image"`

	// ImageCandidates are raw provider artwork URLs in preference order,
	// carried from the adapter to the image pipeline. Not serialized.
	ImageCandidates []string `json:"-"`

	// Provenance records which layer and source produced this record.
	Provenance Provenance `json:"provenance"`
}

// ImageRef is a guaranteed-renderable image reference attached to a record.
//
// Invariant: URL is never empty while Generated is false. A record either
// points at a validated upstream image or at a generated placeholder.
type ImageRef struct {
	// URL is the proxy-safe image URL or the internal placeholder reference.
	URL string `json:"url"`

	// Source names where the image came from ("omdb", "candidate", "generated").
	Source string `json:"source"`

	// Generated is true when the image is a deterministic placeholder
	// rather than fetched provider artwork.
	Generated bool `json:"generated"`
}

// WithImage returns a copy of the record carrying the given image reference.
// The receiver is not modified.
func (r CanonicalRecord) WithImage(ref ImageRef) CanonicalRecord {
	r.Image = &ref
	return r
}

// WithProvenance returns a copy of the record carrying the given provenance.
func (r CanonicalRecord) WithProvenance(p Provenance) CanonicalRecord {
	r.Provenance = p
	return r
}

// HasUsableImage reports whether the record satisfies the image guarantee:
// a non-empty resolved URL, or an explicitly generated placeholder.
func (r CanonicalRecord) HasUsableImage() bool {
	return r.Image != nil && (r.Image.URL != "" || r.Image.Generated)
}

// DeriveRecordID produces a stable id for a record lacking an upstream
// identifier. It hashes the normalized title and year so repeated
// derivations for the same movie converge on the same id.
func DeriveRecordID(title string, year *int) string {
	key := NormalizeQuery(title) + "|"
	if year != nil {
		key += strconv.Itoa(*year)
	}
	sum := sha1.Sum([]byte(key))
	return "cs-" + hex.EncodeToString(sum[:8])
}
