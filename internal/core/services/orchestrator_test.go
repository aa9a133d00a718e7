package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

// mockAdapter is a scriptable SourceAdapter for orchestrator tests.
type mockAdapter struct {
	name    string
	tier    domain.SourceTier
	timeout time.Duration
	delay   time.Duration

	calls     atomic.Int32
	probes    atomic.Int32
	fetch     func(ctx context.Context, query string) ([]domain.RawCandidate, error)
	fetchByID func(ctx context.Context, id string) (*domain.RawCandidate, error)
	probeErr  error
}

func (m *mockAdapter) Name() string            { return m.name }
func (m *mockAdapter) Tier() domain.SourceTier { return m.tier }

func (m *mockAdapter) Timeout() time.Duration {
	if m.timeout == 0 {
		return time.Second
	}
	return m.timeout
}

func (m *mockAdapter) Fetch(ctx context.Context, query string, _ domain.SourceConstraints) ([]domain.RawCandidate, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, domain.NewAdapterError(m.name, domain.ErrorTimeout, ctx.Err())
		case <-time.After(m.delay):
		}
	}
	if m.fetch != nil {
		return m.fetch(ctx, query)
	}
	return nil, nil
}

func (m *mockAdapter) FetchByID(ctx context.Context, id string) (*domain.RawCandidate, error) {
	if m.fetchByID != nil {
		return m.fetchByID(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAdapter) Probe(context.Context) error {
	m.probes.Add(1)
	return m.probeErr
}

func candidate(source, id, title string, confidence float64) domain.RawCandidate {
	return domain.RawCandidate{
		Source:     source,
		UpstreamID: id,
		Title:      title,
		Year:       "2010",
		Rating:     "8.0",
		Confidence: confidence,
	}
}

func testSourcesConfig() domain.SourcesConfig {
	return domain.SourcesConfig{
		GraceWindow:         60 * time.Millisecond,
		ConfidenceThreshold: 0.5,
		GlobalConcurrency:   12,
	}
}

func newTestOrchestrator(cfg domain.SourcesConfig, adapters ...driven.SourceAdapter) (*Orchestrator, *HealthService) {
	health := NewHealthService(adapters, time.Minute)
	return NewOrchestrator(adapters, health, cfg), health
}

func TestOrchestrator_PrimaryAloneSatisfiesRequest(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{
				candidate("primary", "tt0001", "Inception", 0.9),
				candidate("primary", "tt0002", "Inception 2", 0.9),
			}, nil
		},
	}
	secondary := &mockAdapter{name: "secondary", tier: domain.TierSecondary}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	res, err := orch.Resolve(context.Background(), "inception", domain.SourceConstraints{}, 2)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "primary", res.Provenance.SourceName)
	assert.Equal(t, domain.LayerLive, res.Provenance.LayerUsed)

	// The secondary tier was still inside its grace window when the
	// request short-circuited, so it must never have been invoked.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestOrchestrator_SecondaryCoversPrimaryOutage(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return nil, domain.NewAdapterError("primary", domain.ErrorUnauthorized, nil)
		},
	}
	secondary := &mockAdapter{
		name: "secondary",
		tier: domain.TierSecondary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{candidate("secondary", "tt0003", "Memento", 0.65)}, nil
		},
	}

	orch, health := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	res, err := orch.Resolve(context.Background(), "memento", domain.SourceConstraints{}, 5)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Memento", res.Records[0].Title)
	assert.Equal(t, "secondary", res.Provenance.SourceName)
	assert.Contains(t, res.SourceErrors, "primary")

	// Unauthorized disables the adapter for the process lifetime.
	assert.False(t, health.Snapshot().Usable("primary"))
}

func TestOrchestrator_SecondaryAnswersWhenPrimaryTimesOut(t *testing.T) {
	// The primary never fails outright, it just takes longer than its own
	// per-source deadline allows. The slower tier still wins the request.
	primary := &mockAdapter{
		name:    "primary",
		tier:    domain.TierPrimary,
		timeout: 40 * time.Millisecond,
		delay:   5 * time.Second,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{candidate("primary", "tt0004", "Oppenheimer", 0.9)}, nil
		},
	}
	secondary := &mockAdapter{
		name: "secondary",
		tier: domain.TierSecondary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{candidate("secondary", "tt0004", "Oppenheimer", 0.7)}, nil
		},
	}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	res, err := orch.Resolve(context.Background(), "oppenheimer", domain.SourceConstraints{}, 5)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Oppenheimer", res.Records[0].Title)
	assert.Equal(t, "secondary", res.Records[0].Provenance.SourceName)
	assert.Equal(t, domain.LayerLive, res.Records[0].Provenance.LayerUsed)
	assert.Equal(t, "secondary", res.Provenance.SourceName)
	assert.Contains(t, res.SourceErrors, "primary")
}

func TestOrchestrator_AllSourcesFailed(t *testing.T) {
	fail := func(name string) func(context.Context, string) ([]domain.RawCandidate, error) {
		return func(context.Context, string) ([]domain.RawCandidate, error) {
			return nil, domain.NewAdapterError(name, domain.ErrorRateLimited, nil)
		}
	}
	primary := &mockAdapter{name: "primary", tier: domain.TierPrimary, fetch: fail("primary")}
	secondary := &mockAdapter{name: "secondary", tier: domain.TierSecondary, fetch: fail("secondary")}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	res, err := orch.Resolve(context.Background(), "anything", domain.SourceConstraints{}, 5)
	require.ErrorIs(t, err, domain.ErrAllSourcesFailed)
	require.NotNil(t, res)
	assert.Len(t, res.SourceErrors, 2)
}

func TestOrchestrator_EmptyAnswerIsNotFailure(t *testing.T) {
	empty := func(context.Context, string) ([]domain.RawCandidate, error) {
		return []domain.RawCandidate{}, nil
	}
	primary := &mockAdapter{name: "primary", tier: domain.TierPrimary, fetch: empty}
	secondary := &mockAdapter{name: "secondary", tier: domain.TierSecondary, fetch: empty}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	res, err := orch.Resolve(context.Background(), "no such movie", domain.SourceConstraints{}, 5)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.SourceErrors)
}

func TestOrchestrator_PriorityWinsOnDuplicateIDs(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			// No plot, no rating: the duplicate fills these in.
			return []domain.RawCandidate{{
				Source:     "primary",
				UpstreamID: "tt0010",
				Title:      "The Prestige",
				Year:       "2006",
				Confidence: 0.9,
			}}, nil
		},
	}
	secondary := &mockAdapter{
		name: "secondary",
		tier: domain.TierSecondary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{
				{
					Source:     "secondary",
					UpstreamID: "tt0010",
					Title:      "The Prestige (duplicate)",
					Year:       "2006",
					Rating:     "8.5",
					Plot:       "Two rival magicians.",
					Confidence: 0.65,
				},
				candidate("secondary", "tt0011", "The Illusionist", 0.65),
			}, nil
		},
	}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	res, err := orch.Resolve(context.Background(), "prestige", domain.SourceConstraints{}, 5)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	winner := res.Records[0]
	assert.Equal(t, "tt0010", winner.ID)
	// The higher-priority record wins wholesale.
	assert.Equal(t, "The Prestige", winner.Title)
	assert.Equal(t, "primary", winner.Provenance.SourceName)
	// Its empty fields are filled from the lower-priority duplicate.
	assert.Equal(t, "Two rival magicians.", winner.Plot)
	require.NotNil(t, winner.Rating)
	assert.Equal(t, 8.5, *winner.Rating)

	assert.Equal(t, "tt0011", res.Records[1].ID)
}

func TestOrchestrator_RankingIsDeterministic(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{
				candidate("primary", "tt0021", "Batman Begins", 0.9),
				candidate("primary", "tt0020", "Batman", 0.9),
			}, nil
		},
	}
	secondary := &mockAdapter{
		name: "secondary",
		tier: domain.TierSecondary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			// Higher confidence than primary, but a lower tier ranks after.
			return []domain.RawCandidate{candidate("secondary", "tt0022", "Batman Returns", 0.99)}, nil
		},
	}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	var firstOrder []string
	for run := 0; run < 3; run++ {
		res, err := orch.Resolve(context.Background(), "batman", domain.SourceConstraints{}, 5)
		require.NoError(t, err)
		require.Len(t, res.Records, 3)

		var order []string
		for _, r := range res.Records {
			order = append(order, r.ID)
		}
		if firstOrder == nil {
			firstOrder = order
			// Primary tier first; equal confidence breaks on id.
			assert.Equal(t, []string{"tt0020", "tt0021", "tt0022"}, order)
			continue
		}
		assert.Equal(t, firstOrder, order)
	}
}

func TestOrchestrator_SkipsDisabledAdapters(t *testing.T) {
	primary := &mockAdapter{name: "primary", tier: domain.TierPrimary}
	secondary := &mockAdapter{
		name: "secondary",
		tier: domain.TierSecondary,
		fetch: func(context.Context, string) ([]domain.RawCandidate, error) {
			return []domain.RawCandidate{candidate("secondary", "tt0030", "Dunkirk", 0.65)}, nil
		},
	}

	orch, health := newTestOrchestrator(testSourcesConfig(), primary, secondary)
	health.Disable("primary")

	res, err := orch.Resolve(context.Background(), "dunkirk", domain.SourceConstraints{}, 5)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, int32(0), primary.calls.Load())
	assert.Equal(t, domain.ErrAdapterDisabled.Error(), res.SourceErrors["primary"])
}

func TestOrchestrator_ResolveByID_TierOrder(t *testing.T) {
	primary := &mockAdapter{
		name: "primary",
		tier: domain.TierPrimary,
		fetchByID: func(_ context.Context, id string) (*domain.RawCandidate, error) {
			c := candidate("primary", id, "Interstellar", 0.9)
			return &c, nil
		},
	}
	secondary := &mockAdapter{name: "secondary", tier: domain.TierSecondary}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	record, err := orch.ResolveByID(context.Background(), "tt0816692")
	require.NoError(t, err)
	assert.Equal(t, "tt0816692", record.ID)
	assert.Equal(t, "Interstellar", record.Title)
	assert.Equal(t, domain.LayerLive, record.Provenance.LayerUsed)
	assert.Equal(t, "primary", record.Provenance.SourceName)
}

func TestOrchestrator_ResolveByID_NotFound(t *testing.T) {
	primary := &mockAdapter{name: "primary", tier: domain.TierPrimary}
	secondary := &mockAdapter{name: "secondary", tier: domain.TierSecondary}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	_, err := orch.ResolveByID(context.Background(), "tt9999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrchestrator_ResolveByID_AllSourcesFailed(t *testing.T) {
	fail := func(name string) func(context.Context, string) (*domain.RawCandidate, error) {
		return func(context.Context, string) (*domain.RawCandidate, error) {
			return nil, domain.NewAdapterError(name, domain.ErrorUnavailable, errors.New("boom"))
		}
	}
	primary := &mockAdapter{name: "primary", tier: domain.TierPrimary, fetchByID: fail("primary")}
	secondary := &mockAdapter{name: "secondary", tier: domain.TierSecondary, fetchByID: fail("secondary")}

	orch, _ := newTestOrchestrator(testSourcesConfig(), primary, secondary)

	_, err := orch.ResolveByID(context.Background(), "tt0000001")
	assert.ErrorIs(t, err, domain.ErrAllSourcesFailed)
}
