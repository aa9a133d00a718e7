package services

import (
	"context"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
	"github.com/Shubham12864/cinescope/internal/logger"
)

// RetryPolicy governs how adapter fetches are retried. One policy is shared
// by live resolution and prefetch so the two paths never drift apart.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// Backoff is the wait between attempts.
	Backoff time.Duration
}

// DefaultRetryPolicy retries retryable failures once after a short pause.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 2, Backoff: 200 * time.Millisecond}

// fetchWithRetry runs one adapter fetch under its tier timeout, retrying
// only failures whose kind is retryable. Unauthorized and rate-limit
// failures return immediately.
func (p RetryPolicy) fetchWithRetry(
	ctx context.Context,
	adapter driven.SourceAdapter,
	query string,
	constraints domain.SourceConstraints,
) ([]domain.RawCandidate, error) {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, adapter.Timeout())
		candidates, err := adapter.Fetch(callCtx, query, constraints)
		cancel()

		if err == nil {
			return candidates, nil
		}
		lastErr = err

		ae, ok := domain.AsAdapterError(err)
		if !ok || !ae.Kind.Retryable() || attempt == p.MaxAttempts {
			return nil, lastErr
		}

		logger.Debug("Retrying %s after %s failure (attempt %d/%d)",
			adapter.Name(), ae.Kind, attempt, p.MaxAttempts)

		select {
		case <-ctx.Done():
			return nil, lastErr
		case <-time.After(p.Backoff):
		}
	}

	return nil, lastErr
}
