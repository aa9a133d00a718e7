// Package omdb implements the primary source adapter on top of the OMDb
// structured JSON API.
package omdb

import (
	"context"
	"encoding/json"
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
	// DefaultBaseURL is the public OMDb API endpoint.
	DefaultBaseURL = "https://www.omdbapi.com"

	// DefaultPosterURL is the OMDb poster endpoint.
	DefaultPosterURL = "https://img.omdbapi.com"

	// RequestsPerSecond throttles the free OMDb tier (1000/day).
	RequestsPerSecond = 2

	// SearchConfidence is assigned to search hits from the structured API.
	SearchConfidence = 0.9

	// DefaultTimeout bounds one API call.
	DefaultTimeout = 4 * time.Second
)

// Ensure Adapter implements both ports.
var (
	_ driven.SourceAdapter = (*Adapter)(nil)
	_ driven.ImageProvider = (*Adapter)(nil)
)

// Adapter is the primary-tier source adapter.
type Adapter struct {
	client    *http.Client
	baseURL   string
	posterURL string
	apiKey    string
	limiter   *rate.Limiter
	timeout   time.Duration
}

// Option customises the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(u, "/") }
}

// WithPosterURL overrides the poster endpoint. Used by tests.
func WithPosterURL(u string) Option {
	return func(a *Adapter) { a.posterURL = strings.TrimRight(u, "/") }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// New creates an OMDb adapter authenticated with the given API key.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		client:    &http.Client{Timeout: DefaultTimeout},
		baseURL:   DefaultBaseURL,
		posterURL: DefaultPosterURL,
		apiKey:    apiKey,
		limiter:   rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.client.Timeout = a.timeout
	return a
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "omdb" }

// Tier returns the adapter's priority tier.
func (a *Adapter) Tier() domain.SourceTier { return domain.TierPrimary }

// Timeout returns the per-call timeout.
func (a *Adapter) Timeout() time.Duration { return a.timeout }

// Fetch searches OMDb for the query.
func (a *Adapter) Fetch(ctx context.Context, query string, constraints domain.SourceConstraints) ([]domain.RawCandidate, error) {
	params := url.Values{}
	params.Set("apikey", a.apiKey)
	params.Set("s", query)
	params.Set("type", "movie")
	if constraints.Year != nil {
		params.Set("y", fmt.Sprintf("%d", *constraints.Year))
	}

	var payload searchResponse
	if err := a.get(ctx, params, &payload); err != nil {
		return nil, err
	}

	if !payload.ok() {
		if payload.noMatches() {
			return nil, nil
		}
		return nil, a.classifyAPIError(payload.Error)
	}

	candidates := payload.toCandidates()
	if constraints.Limit > 0 && len(candidates) > constraints.Limit {
		candidates = candidates[:constraints.Limit]
	}
	return candidates, nil
}

// FetchByID fetches one title with a full plot by its IMDb id.
func (a *Adapter) FetchByID(ctx context.Context, id string) (*domain.RawCandidate, error) {
	params := url.Values{}
	params.Set("apikey", a.apiKey)
	params.Set("i", id)
	params.Set("plot", "full")

	var payload detailResponse
	if err := a.get(ctx, params, &payload); err != nil {
		return nil, err
	}

	if !payload.ok() {
		if payload.noMatches() {
			return nil, domain.ErrNotFound
		}
		return nil, a.classifyAPIError(payload.Error)
	}

	c := payload.toCandidate()
	return &c, nil
}

// Probe verifies the API key with a minimal lookup.
func (a *Adapter) Probe(ctx context.Context) error {
	params := url.Values{}
	params.Set("apikey", a.apiKey)
	params.Set("i", "tt0111161") // a title that always exists

	var payload detailResponse
	if err := a.get(ctx, params, &payload); err != nil {
		return err
	}
	if !payload.ok() && !payload.noMatches() {
		return a.classifyAPIError(payload.Error)
	}
	return nil
}

// PosterURL implements driven.ImageProvider against the OMDb poster API.
// The returned URL is verified with a HEAD request so callers never receive
// a dangling link.
func (a *Adapter) PosterURL(ctx context.Context, recordID string) (string, error) {
	if !strings.HasPrefix(recordID, "tt") {
		// Derived ids have no upstream artwork.
		return "", domain.ErrImageUnavailable
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return "", domain.NewAdapterError(a.Name(), domain.ErrorTimeout, err)
	}

	poster := fmt.Sprintf("%s/?i=%s&apikey=%s", a.posterURL, url.QueryEscape(recordID), url.QueryEscape(a.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, poster, nil)
	if err != nil {
		return "", fmt.Errorf("build poster request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", domain.ErrImageUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.ErrImageUnavailable
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", domain.ErrImageUnavailable
	}
	return poster, nil
}

// get performs one rate-limited API call and decodes the JSON body.
func (a *Adapter) get(ctx context.Context, params url.Values, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return domain.NewAdapterError(a.Name(), domain.ErrorTimeout, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		kind := domain.ErrorUnavailable
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = domain.ErrorTimeout
		}
		return domain.NewAdapterError(a.Name(), kind, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.NewAdapterError(a.Name(), domain.ErrorUnauthorized, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewAdapterError(a.Name(), domain.ErrorRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return domain.NewAdapterError(a.Name(), domain.ErrorMalformed, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewAdapterError(a.Name(), domain.ErrorMalformed, err)
	}
	return nil
}

// classifyAPIError maps OMDb's in-band error strings onto the taxonomy.
// OMDb reports most failures with HTTP 200 and Response=False.
func (a *Adapter) classifyAPIError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key"):
		return domain.NewAdapterError(a.Name(), domain.ErrorUnauthorized, errors.New(msg))
	case strings.Contains(lower, "limit"):
		return domain.NewAdapterError(a.Name(), domain.ErrorRateLimited, errors.New(msg))
	default:
		return domain.NewAdapterError(a.Name(), domain.ErrorUnavailable, errors.New(msg))
	}
}
