package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

// Ensure Fetcher implements the port.
var _ driven.ImageFetcher = (*Fetcher)(nil)

// DefaultFetchTimeout bounds one image download.
const DefaultFetchTimeout = 5 * time.Second

// Fetcher downloads image bytes over HTTP with size enforcement.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates an image fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: DefaultFetchTimeout}}
}

// FetchImage downloads the image at url. An oversized payload is a
// failure, not a result: the body read is capped at maxBytes and anything
// that exceeds the cap fails with domain.ErrImageTooLarge.
func (f *Fetcher) FetchImage(ctx context.Context, url string, maxBytes int64) (*domain.ResolvedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.ErrImageUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrImageUnavailable
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.ErrImageUnavailable
	}
	if resp.ContentLength > maxBytes {
		return nil, domain.ErrImageTooLarge
	}

	// Read one byte past the cap to detect providers that lie about
	// Content-Length.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, domain.ErrImageUnavailable
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, domain.ErrImageUnavailable
	}

	return &domain.ResolvedImage{
		Data:        data,
		ContentType: contentType,
		ContentHash: domain.ContentHash(data),
	}, nil
}
