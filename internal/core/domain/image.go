package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ImageSize bounds the dimensions of a resolved or generated image.
type ImageSize struct {
	// Width in pixels.
	Width int

	// Height in pixels.
	Height int
}

// DefaultPosterSize is the standard 2:3 poster aspect used when a caller
// does not request explicit dimensions.
var DefaultPosterSize = ImageSize{Width: 300, Height: 450}

// Normalize clamps the size to sane bounds, preserving the poster aspect
// ratio when only one dimension is supplied.
func (s ImageSize) Normalize() ImageSize {
	if s.Width <= 0 && s.Height <= 0 {
		return DefaultPosterSize
	}
	if s.Width <= 0 {
		s.Width = s.Height * 2 / 3
	}
	if s.Height <= 0 {
		s.Height = s.Width * 3 / 2
	}
	if s.Width > 2000 {
		s.Width = 2000
	}
	if s.Height > 3000 {
		s.Height = 3000
	}
	return s
}

// ImageResolution is the cached outcome of resolving one record's image.
// Computed once per distinct source URL/id and kept until explicit
// invalidation.
type ImageResolution struct {
	// RecordID is the record the resolution belongs to.
	RecordID string

	// Candidates are the sanitized candidate URLs in priority order.
	Candidates []string

	// ResolvedURL is the winning URL, empty when a fallback was generated.
	ResolvedURL string

	// ResolvedSource names the winning step ("provider", "candidate",
	// "generated").
	ResolvedSource string

	// GeneratedFallback is true when no upstream image was usable and a
	// placeholder was produced instead.
	GeneratedFallback bool

	// ResolvedAt is when the resolution was computed.
	ResolvedAt time.Time
}

// ResolvedImage is binary image content ready to serve.
type ResolvedImage struct {
	// Data is the image bytes.
	Data []byte

	// ContentType is the MIME type of Data.
	ContentType string

	// ContentHash addresses the bytes for cache storage.
	ContentHash string

	// Generated is true for deterministic placeholders.
	Generated bool

	// MaxAge is the cache lifetime to advertise to callers.
	MaxAge time.Duration
}

// PlaceholderPrefix marks an image reference as a generated placeholder
// key rather than a record id or URL.
const PlaceholderPrefix = "ph-"

// PlaceholderKey addresses a generated placeholder by title and dimensions
// so identical titles never regenerate.
func PlaceholderKey(title string, size ImageSize) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%dx%d", NormalizeQuery(title), size.Width, size.Height)))
	return PlaceholderPrefix + hex.EncodeToString(sum[:12])
}

// IsPlaceholderKey reports whether ref is a placeholder key.
func IsPlaceholderKey(ref string) bool {
	return strings.HasPrefix(ref, PlaceholderPrefix)
}

// ContentHash addresses raw image bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
