package driven

import (
	"context"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// ImageStore persists image resolutions and content-hash addressed image
// bytes. Resolutions live until explicit invalidation.
type ImageStore interface {
	// GetResolution returns the stored resolution for a record.
	// Returns domain.ErrNotFound when the record has never been resolved.
	GetResolution(ctx context.Context, recordID string) (*domain.ImageResolution, error)

	// PutResolution inserts or replaces the resolution for its RecordID.
	PutResolution(ctx context.Context, res *domain.ImageResolution) error

	// GetImage returns stored image bytes by content hash.
	// Returns domain.ErrNotFound when absent.
	GetImage(ctx context.Context, hash string) (*domain.ResolvedImage, error)

	// PutImage stores image bytes under their content hash.
	PutImage(ctx context.Context, img *domain.ResolvedImage) error

	// Invalidate drops the resolution for a record, forcing recomputation.
	// The content-addressed bytes stay; other records may share them.
	Invalidate(ctx context.Context, recordID string) error
}

// ImageCache is the bounded in-process tier for served image bytes,
// addressed by content hash or placeholder key.
type ImageCache interface {
	// Get returns cached bytes for key, or false on miss.
	Get(key string) (*domain.ResolvedImage, bool)

	// Set stores bytes under key, evicting under capacity pressure.
	Set(key string, img *domain.ResolvedImage)
}

// ImageProvider is the priority artwork lookup, keyed by stable record id.
type ImageProvider interface {
	// Name returns the provider identifier.
	Name() string

	// PosterURL returns a direct artwork URL for the record id.
	// Returns domain.ErrImageUnavailable when the provider has none.
	PosterURL(ctx context.Context, recordID string) (string, error)
}

// ImageFetcher retrieves and size-checks image bytes from a URL.
type ImageFetcher interface {
	// FetchImage downloads the image at url. Payloads larger than maxBytes
	// fail with domain.ErrImageTooLarge; non-image content types fail with
	// domain.ErrImageUnavailable.
	FetchImage(ctx context.Context, url string, maxBytes int64) (*domain.ResolvedImage, error)
}
