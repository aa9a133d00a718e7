// Package cinemeta implements the secondary source adapter by scraping the
// IMDb find page. It is slower and less structured than the primary API
// but needs no key, so it backstops the primary tier.
package cinemeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the scrape target.
	DefaultBaseURL = "https://www.imdb.com"

	// RequestsPerSecond keeps the scrape polite.
	RequestsPerSecond = 0.5

	// ScrapeConfidence is assigned to scraped hits. Lower than the
	// structured API: titles and years come from loosely parsed markup.
	ScrapeConfidence = 0.65

	// DefaultTimeout bounds one page fetch.
	DefaultTimeout = 6 * time.Second

	// maxBody caps how much HTML is read per page.
	maxBody = 2 << 20

	userAgent = "cinescope/1.0 (+https://github.com/Shubham12864/cinescope)"
)

// Ensure Adapter implements the port.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter is the secondary-tier scrape adapter.
type Adapter struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	timeout time.Duration
}

// Option customises the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the scrape target. Used by tests.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// New creates a cinemeta adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.client.Timeout = a.timeout
	return a
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "cinemeta" }

// Tier returns the adapter's priority tier.
func (a *Adapter) Tier() domain.SourceTier { return domain.TierSecondary }

// Timeout returns the per-call timeout.
func (a *Adapter) Timeout() time.Duration { return a.timeout }

// Fetch scrapes the find page for titles matching the query.
func (a *Adapter) Fetch(ctx context.Context, query string, constraints domain.SourceConstraints) ([]domain.RawCandidate, error) {
	page, err := a.getPage(ctx, "/find/?s=tt&ttype=ft&q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	candidates := parseFindPage(page)
	if len(candidates) == 0 {
		// Nothing parseable. An empty result page is a legitimate answer;
		// a page without the expected markup at all is a malformed payload.
		if !looksLikeFindPage(page) {
			return nil, domain.NewAdapterError(a.Name(), domain.ErrorMalformed, errors.New("unrecognised page structure"))
		}
		return nil, nil
	}

	if constraints.Year != nil {
		candidates = filterByYear(candidates, *constraints.Year)
	}
	if constraints.Limit > 0 && len(candidates) > constraints.Limit {
		candidates = candidates[:constraints.Limit]
	}
	return candidates, nil
}

// FetchByID scrapes a single title page.
func (a *Adapter) FetchByID(ctx context.Context, id string) (*domain.RawCandidate, error) {
	if !strings.HasPrefix(id, "tt") {
		return nil, domain.ErrNotFound
	}

	page, err := a.getPage(ctx, "/title/"+url.PathEscape(id)+"/")
	if err != nil {
		return nil, err
	}

	candidate, ok := parseTitlePage(id, page)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return candidate, nil
}

// Probe checks the site answers at all.
func (a *Adapter) Probe(ctx context.Context) error {
	_, err := a.getPage(ctx, "/")
	return err
}

// getPage performs one rate-limited page fetch.
func (a *Adapter) getPage(ctx context.Context, path string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", domain.NewAdapterError(a.Name(), domain.ErrorTimeout, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en")

	resp, err := a.client.Do(req)
	if err != nil {
		kind := domain.ErrorUnavailable
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = domain.ErrorTimeout
		}
		return "", domain.NewAdapterError(a.Name(), kind, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", domain.NewAdapterError(a.Name(), domain.ErrorRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusForbidden:
		// Scrape targets answer blocked clients with 403.
		return "", domain.NewAdapterError(a.Name(), domain.ErrorRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return "", domain.ErrNotFound
	case resp.StatusCode >= 500:
		return "", domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return "", domain.NewAdapterError(a.Name(), domain.ErrorMalformed, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, err)
	}
	return string(body), nil
}

func filterByYear(candidates []domain.RawCandidate, year int) []domain.RawCandidate {
	want := fmt.Sprintf("%d", year)
	out := candidates[:0]
	for _, c := range candidates {
		if strings.HasPrefix(c.Year, want) {
			out = append(out, c)
		}
	}
	return out
}
