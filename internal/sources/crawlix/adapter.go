// Package crawlix implements the tertiary source adapter: a broad
// metasearch scrape that surfaces title pages the narrower tiers missed.
// It is the slowest and least trusted tier, so it carries the lowest
// confidence, the longest timeout and the strictest rate limit.
package crawlix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the metasearch HTML endpoint.
	DefaultBaseURL = "https://html.duckduckgo.com"

	// RequestsPerMinute keeps the broad scrape well under the radar.
	RequestsPerMinute = 20

	// BroadConfidence is assigned to metasearch hits.
	BroadConfidence = 0.4

	// DefaultTimeout bounds one metasearch call.
	DefaultTimeout = 8 * time.Second

	maxBody = 2 << 20

	userAgent = "cinescope/1.0 (+https://github.com/Shubham12864/cinescope)"
)

// Result links point at movie title pages; the id and a "Title (Year)"
// heading are recoverable from the link and its anchor text.
var (
	resultAnchorRe = regexp.MustCompile(`<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	titleIDRe      = regexp.MustCompile(`/title/(tt\d+)`)
	headingRe      = regexp.MustCompile(`^(.*?)\s*\((\d{4})\)`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
)

// Ensure Adapter implements the port.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter is the tertiary-tier metasearch adapter.
type Adapter struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	timeout time.Duration
}

// Option customises the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the metasearch endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// New creates a crawlix adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(float64(RequestsPerMinute)/60.0), 1),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.client.Timeout = a.timeout
	return a
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "crawlix" }

// Tier returns the adapter's priority tier.
func (a *Adapter) Tier() domain.SourceTier { return domain.TierTertiary }

// Timeout returns the per-call timeout.
func (a *Adapter) Timeout() time.Duration { return a.timeout }

// Fetch runs a metasearch scoped to movie title pages.
func (a *Adapter) Fetch(ctx context.Context, query string, constraints domain.SourceConstraints) ([]domain.RawCandidate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, domain.NewAdapterError(a.Name(), domain.ErrorTimeout, err)
	}

	q := query + " movie site:imdb.com"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/html/?q="+url.QueryEscape(q), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		kind := domain.ErrorUnavailable
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = domain.ErrorTimeout
		}
		return nil, domain.NewAdapterError(a.Name(), kind, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return nil, domain.NewAdapterError(a.Name(), domain.ErrorRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, domain.NewAdapterError(a.Name(), domain.ErrorMalformed, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, err)
	}

	candidates := parseResults(string(body))
	if constraints.Limit > 0 && len(candidates) > constraints.Limit {
		candidates = candidates[:constraints.Limit]
	}
	return candidates, nil
}

// FetchByID is not supported by a metasearch; the narrower tiers own id
// lookup.
func (a *Adapter) FetchByID(_ context.Context, _ string) (*domain.RawCandidate, error) {
	return nil, domain.ErrNotFound
}

// Probe checks the endpoint answers at all.
func (a *Adapter) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, a.baseURL+"/html/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// parseResults extracts movie candidates from metasearch result anchors.
// Rows without a recoverable title id are skipped.
func parseResults(page string) []domain.RawCandidate {
	matches := resultAnchorRe.FindAllStringSubmatch(page, -1)

	seen := make(map[string]struct{})
	var candidates []domain.RawCandidate
	for _, m := range matches {
		href, anchor := m[1], m[2]

		idMatch := titleIDRe.FindStringSubmatch(href)
		if idMatch == nil {
			continue
		}
		id := idMatch[1]
		if _, dup := seen[id]; dup {
			continue
		}

		heading := strings.TrimSpace(htmlStrip(anchor))
		title, year := splitHeading(heading)
		if title == "" {
			continue
		}
		seen[id] = struct{}{}

		candidates = append(candidates, domain.RawCandidate{
			Source:     "crawlix",
			UpstreamID: id,
			Title:      title,
			Year:       year,
			Confidence: BroadConfidence,
		})
	}
	return candidates
}

// splitHeading separates "Inception (2010) - IMDb" into title and year.
func splitHeading(heading string) (title, year string) {
	if m := headingRe.FindStringSubmatch(heading); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	// No year; drop trailing "- IMDb" style suffixes.
	if idx := strings.LastIndex(heading, " - "); idx > 0 {
		heading = heading[:idx]
	}
	return strings.TrimSpace(heading), ""
}

func htmlStrip(s string) string {
	return tagRe.ReplaceAllString(s, "")
}
