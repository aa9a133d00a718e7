package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
)

func TestHealthService_InitialSnapshotIsOptimistic(t *testing.T) {
	adapters := []driven.SourceAdapter{
		&mockAdapter{name: "primary", tier: domain.TierPrimary},
		&mockAdapter{name: "secondary", tier: domain.TierSecondary},
	}
	health := NewHealthService(adapters, time.Minute)

	snapshot := health.Snapshot()
	assert.True(t, snapshot.Usable("primary"))
	assert.True(t, snapshot.Usable("secondary"))
	assert.True(t, snapshot.Adapters["primary"].Healthy)
}

func TestHealthService_ProbeRecordsFailures(t *testing.T) {
	healthy := &mockAdapter{name: "primary", tier: domain.TierPrimary}
	broken := &mockAdapter{
		name:     "secondary",
		tier:     domain.TierSecondary,
		probeErr: errors.New("connection refused"),
	}
	health := NewHealthService([]driven.SourceAdapter{healthy, broken}, time.Minute)

	health.probeAll(context.Background())

	snapshot := health.Snapshot()
	assert.True(t, snapshot.Adapters["primary"].Healthy)

	st := snapshot.Adapters["secondary"]
	assert.False(t, st.Healthy)
	assert.Equal(t, "connection refused", st.LastError)
	// Unhealthy is not disabled: the next probe may recover it.
	assert.True(t, snapshot.Usable("secondary"))
}

func TestHealthService_UnauthorizedProbeDisables(t *testing.T) {
	bad := &mockAdapter{
		name:     "primary",
		tier:     domain.TierPrimary,
		probeErr: domain.NewAdapterError("primary", domain.ErrorUnauthorized, nil),
	}
	health := NewHealthService([]driven.SourceAdapter{bad}, time.Minute)

	health.probeAll(context.Background())
	require.False(t, health.Snapshot().Usable("primary"))

	// Disabled survives later probes even if the probe would succeed.
	bad.probeErr = nil
	health.probeAll(context.Background())
	assert.False(t, health.Snapshot().Usable("primary"))
	assert.True(t, health.Snapshot().Adapters["primary"].Disabled)
}

func TestHealthService_DisableIsPermanent(t *testing.T) {
	adapter := &mockAdapter{name: "primary", tier: domain.TierPrimary}
	health := NewHealthService([]driven.SourceAdapter{adapter}, time.Minute)

	health.Disable("primary")
	assert.False(t, health.Snapshot().Usable("primary"))

	health.probeAll(context.Background())
	assert.False(t, health.Snapshot().Usable("primary"))

	// Unknown adapters are ignored, not tracked.
	health.Disable("nonexistent")
	assert.True(t, health.Snapshot().Usable("nonexistent"))
}

func TestHealthService_DisableRepublishesWithoutProbing(t *testing.T) {
	primary := &mockAdapter{name: "primary", tier: domain.TierPrimary}
	secondary := &mockAdapter{name: "secondary", tier: domain.TierSecondary}
	health := NewHealthService([]driven.SourceAdapter{primary, secondary}, time.Minute)

	before := health.Snapshot()
	health.Disable("primary")

	// Disable runs on live request paths: it must not touch the adapters.
	assert.Equal(t, int32(0), primary.probes.Load())
	assert.Equal(t, int32(0), secondary.probes.Load())

	snapshot := health.Snapshot()
	st := snapshot.Adapters["primary"]
	assert.True(t, st.Disabled)
	assert.False(t, st.Healthy)
	assert.Equal(t, domain.ErrAdapterDisabled.Error(), st.LastError)

	// The other adapter's status is carried over from the prior snapshot.
	assert.Equal(t, before.Adapters["secondary"], snapshot.Adapters["secondary"])
	assert.True(t, snapshot.Usable("secondary"))
}

func TestHealthService_SnapshotIsReplacedNotMutated(t *testing.T) {
	adapter := &mockAdapter{name: "primary", tier: domain.TierPrimary}
	health := NewHealthService([]driven.SourceAdapter{adapter}, time.Minute)

	before := health.Snapshot()
	adapter.probeErr = errors.New("down")
	health.probeAll(context.Background())

	// The earlier snapshot still reports the old state.
	assert.True(t, before.Adapters["primary"].Healthy)
	assert.False(t, health.Snapshot().Adapters["primary"].Healthy)
}
