package services

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
	"github.com/Shubham12864/cinescope/internal/core/ports/driving"
	"github.com/Shubham12864/cinescope/internal/imaging"
	"github.com/Shubham12864/cinescope/internal/logger"
)

// Ensure ImageService implements the interface.
var _ driving.ImageService = (*ImageService)(nil)

// ImageService resolves record artwork into servable bytes.
//
// Resolution order: priority provider lookup, then the record's candidate
// URLs, then a deterministic generated placeholder. The pipeline never
// fails a request over an image; every path ends in servable bytes.
type ImageService struct {
	store     driven.ImageStore
	cache     driven.ImageCache
	fetcher   driven.ImageFetcher
	providers []driven.ImageProvider

	// lookup resolves a record id to its record, via the instant cache.
	lookup func(ctx context.Context, id string) (*domain.CanonicalRecord, error)

	mu  sync.RWMutex
	cfg domain.ImagesConfig
}

// NewImageService creates the image pipeline.
func NewImageService(
	store driven.ImageStore,
	cache driven.ImageCache,
	fetcher driven.ImageFetcher,
	providers []driven.ImageProvider,
	cfg domain.ImagesConfig,
	lookup func(ctx context.Context, id string) (*domain.CanonicalRecord, error),
) *ImageService {
	return &ImageService{
		store:     store,
		cache:     cache,
		fetcher:   fetcher,
		providers: providers,
		lookup:    lookup,
		cfg:       cfg,
	}
}

// UpdateConfig swaps the pipeline configuration on hot reload.
func (s *ImageService) UpdateConfig(cfg domain.ImagesConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	logger.Debug("Image config updated: %d blocklisted domains", len(cfg.BlocklistedDomains))
}

func (s *ImageService) config() domain.ImagesConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ResolveImage returns binary image content for a record id or a
// previously validated URL. Failures degrade to a generated placeholder.
func (s *ImageService) ResolveImage(ctx context.Context, urlOrID string, size domain.ImageSize) (*domain.ResolvedImage, error) {
	size = size.Normalize()

	if strings.Contains(urlOrID, "://") {
		if clean, ok := s.sanitizeURL(urlOrID); ok {
			if img := s.fetchAndStore(ctx, clean); img != nil {
				return img, nil
			}
		}
		return s.placeholder(ctx, "", size), nil
	}

	// Placeholder keys handed out by RecordRef are opaque; the bytes live
	// under the key in the cache tiers, never behind a record lookup.
	if domain.IsPlaceholderKey(urlOrID) {
		return s.placeholderByKey(ctx, urlOrID, size), nil
	}

	record, err := s.lookup(ctx, urlOrID)
	if err != nil {
		logger.Debug("Record lookup for image %q failed: %v", urlOrID, err)
		return s.placeholder(ctx, urlOrID, size), nil
	}

	res := s.resolution(ctx, record)
	if res.GeneratedFallback {
		return s.placeholder(ctx, record.Title, size), nil
	}

	if img := s.fetchAndStore(ctx, res.ResolvedURL); img != nil {
		return img, nil
	}

	// The winning URL stopped serving usable bytes. Record the downgrade
	// so later requests go straight to the placeholder until invalidation.
	res.GeneratedFallback = true
	res.ResolvedURL = ""
	res.ResolvedSource = "generated"
	res.ResolvedAt = time.Now().UTC()
	if err := s.store.PutResolution(ctx, res); err != nil {
		logger.Warn("Recording image downgrade for %s failed: %v", record.ID, err)
	}
	return s.placeholder(ctx, record.Title, size), nil
}

// RecordRef computes the image reference to attach to a record, resolving
// (or reusing) the record's image resolution. No upstream bytes are fetched
// here; the reference points callers at the image endpoint.
func (s *ImageService) RecordRef(ctx context.Context, record *domain.CanonicalRecord) domain.ImageRef {
	res := s.resolution(ctx, record)
	if res.GeneratedFallback {
		// Generate the artwork now so the emitted key resolves from the
		// cache tiers, where the title is no longer recoverable.
		img := s.placeholder(ctx, record.Title, domain.DefaultPosterSize)
		return domain.ImageRef{
			URL:       img.ContentHash,
			Source:    "generated",
			Generated: true,
		}
	}
	return domain.ImageRef{
		URL:    res.ResolvedURL,
		Source: res.ResolvedSource,
	}
}

// resolution returns the stored resolution for the record, computing and
// persisting it on first sight.
func (s *ImageService) resolution(ctx context.Context, record *domain.CanonicalRecord) *domain.ImageResolution {
	if res, err := s.store.GetResolution(ctx, record.ID); err == nil {
		return res
	}

	res := s.computeResolution(ctx, record)
	if err := s.store.PutResolution(ctx, res); err != nil {
		logger.Warn("Storing image resolution for %s failed: %v", record.ID, err)
	}
	return res
}

// computeResolution runs the provider-then-candidates priority chain.
func (s *ImageService) computeResolution(ctx context.Context, record *domain.CanonicalRecord) *domain.ImageResolution {
	cfg := s.config()

	res := &domain.ImageResolution{
		RecordID:   record.ID,
		ResolvedAt: time.Now().UTC(),
	}

	for _, raw := range record.ImageCandidates {
		if clean, ok := s.sanitizeURL(raw); ok {
			res.Candidates = append(res.Candidates, clean)
		}
	}

	for _, provider := range s.providers {
		providerCtx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
		posterURL, err := provider.PosterURL(providerCtx, record.ID)
		cancel()
		if err != nil {
			logger.Debug("Image provider %s has nothing for %s: %v", provider.Name(), record.ID, err)
			continue
		}
		if clean, ok := s.sanitizeURL(posterURL); ok {
			res.ResolvedURL = clean
			res.ResolvedSource = provider.Name()
			return res
		}
	}

	if len(res.Candidates) > 0 {
		res.ResolvedURL = res.Candidates[0]
		res.ResolvedSource = "candidate"
		return res
	}

	res.GeneratedFallback = true
	res.ResolvedSource = "generated"
	return res
}

// Invalidate drops the stored resolution for a record.
func (s *ImageService) Invalidate(ctx context.Context, recordID string) error {
	return s.store.Invalidate(ctx, recordID)
}

// fetchAndStore downloads the image and records it in both cache tiers.
// Returns nil on any fetch failure; callers fall back to the placeholder.
func (s *ImageService) fetchAndStore(ctx context.Context, imageURL string) *domain.ResolvedImage {
	if imageURL == "" {
		return nil
	}
	cfg := s.config()

	cacheKey := "url-" + imageURL
	if img, ok := s.cache.Get(cacheKey); ok {
		return img
	}

	img, err := s.fetcher.FetchImage(ctx, imageURL, cfg.MaxBytes)
	if err != nil {
		logger.Debug("Image fetch failed for %s: %v", imageURL, err)
		return nil
	}
	img.MaxAge = cfg.CacheTTL

	s.cache.Set(cacheKey, img)
	if err := s.store.PutImage(ctx, img); err != nil {
		logger.Warn("Persisting image %s failed: %v", img.ContentHash, err)
	}
	return img
}

// placeholder returns the deterministic generated artwork for the title,
// reusing cached bytes so identical titles never regenerate. Placeholders
// are addressed by their key in both tiers, so a key emitted in one process
// still resolves after a restart.
func (s *ImageService) placeholder(ctx context.Context, title string, size domain.ImageSize) *domain.ResolvedImage {
	cfg := s.config()
	key := domain.PlaceholderKey(title, size)

	if img, ok := s.cache.Get(key); ok {
		return img
	}

	img := imaging.GeneratePlaceholder(title, size)
	img.ContentHash = key
	img.MaxAge = cfg.CacheTTL

	s.cache.Set(key, img)
	if err := s.store.PutImage(ctx, img); err != nil {
		logger.Warn("Persisting placeholder failed: %v", err)
	}
	return img
}

// placeholderByKey serves a previously emitted placeholder key from the
// cache tiers. A key this process has never generated has no recoverable
// title; it degrades to the generic untitled card.
func (s *ImageService) placeholderByKey(ctx context.Context, key string, size domain.ImageSize) *domain.ResolvedImage {
	if img, ok := s.cache.Get(key); ok {
		return img
	}
	if img, err := s.store.GetImage(ctx, key); err == nil {
		img.MaxAge = s.config().CacheTTL
		s.cache.Set(key, img)
		return img
	}
	return s.placeholder(ctx, "", size)
}

// sanitizeURL normalizes a candidate URL and applies the safety rules:
// https only after upgrade, no blocklisted hosts, no provider "missing
// image" placeholders.
func (s *ImageService) sanitizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	switch u.Scheme {
	case "https":
	case "http":
		u.Scheme = "https"
	default:
		return "", false
	}

	lowered := strings.ToLower(u.String())
	for _, marker := range []string{"placeholder", "no_poster", "noposter", "missing"} {
		if strings.Contains(lowered, marker) {
			return "", false
		}
	}

	host := strings.ToLower(u.Hostname())
	cfg := s.config()
	for _, blocked := range cfg.BlocklistedDomains {
		blocked = strings.ToLower(blocked)
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return "", false
		}
	}

	return u.String(), true
}
