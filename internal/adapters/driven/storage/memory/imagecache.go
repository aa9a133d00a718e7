package memory

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

// Ensure ImageCache implements the interface.
var _ driven.ImageCache = (*ImageCache)(nil)

// DefaultImageCapacity bounds the image cache when unconfigured.
// Images are orders of magnitude larger than record entries, so the
// default is far smaller than the record cache.
const DefaultImageCapacity = 128

// ImageCache is a bounded LRU over served image bytes, addressed by
// content hash or placeholder key. Content-addressed entries never go
// stale, so there is no expiry here; eviction is purely capacity driven.
type ImageCache struct {
	images *lru.Cache[string, *domain.ResolvedImage]
}

// NewImageCache creates an image cache bounded to capacity images.
func NewImageCache(capacity int) *ImageCache {
	if capacity <= 0 {
		capacity = DefaultImageCapacity
	}
	images, _ := lru.New[string, *domain.ResolvedImage](capacity)
	return &ImageCache{images: images}
}

// Get returns cached bytes for key, or false on miss.
func (c *ImageCache) Get(key string) (*domain.ResolvedImage, bool) {
	return c.images.Get(key)
}

// Set stores bytes under key.
func (c *ImageCache) Set(key string, img *domain.ResolvedImage) {
	c.images.Add(key, img)
}
