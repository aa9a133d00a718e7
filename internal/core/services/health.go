package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driven"
	"github.com/Shubham12864/cinescope/internal/logger"
)

// HealthService probes adapters in the background and publishes immutable
// snapshots. Readers always get a complete, consistent view; the probe loop
// replaces the snapshot wholesale instead of mutating shared flags.
type HealthService struct {
	adapters []driven.SourceAdapter
	interval time.Duration

	snapshot atomic.Pointer[domain.HealthSnapshot]

	// disabled holds adapter names turned off for the process lifetime
	// after an unauthorized failure. Written once, never cleared.
	disabled map[string]*atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthService creates a health service over the given adapters.
func NewHealthService(adapters []driven.SourceAdapter, interval time.Duration) *HealthService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	disabled := make(map[string]*atomic.Bool, len(adapters))
	for _, a := range adapters {
		disabled[a.Name()] = &atomic.Bool{}
	}

	s := &HealthService{
		adapters: adapters,
		interval: interval,
		disabled: disabled,
		done:     make(chan struct{}),
	}

	// Optimistic initial snapshot so the first requests before the probe
	// loop runs treat every adapter as usable.
	initial := domain.HealthSnapshot{
		Adapters: make(map[string]domain.AdapterStatus, len(adapters)),
		TakenAt:  time.Now().UTC(),
	}
	for _, a := range adapters {
		initial.Adapters[a.Name()] = domain.AdapterStatus{
			Name:    a.Name(),
			Tier:    a.Tier(),
			Healthy: true,
		}
	}
	s.snapshot.Store(&initial)

	return s
}

// Snapshot returns the most recent immutable health snapshot.
func (s *HealthService) Snapshot() domain.HealthSnapshot {
	return *s.snapshot.Load()
}

// Disable turns the named adapter off for the process lifetime. Called by
// the orchestrator on unauthorized failures; probing continues but the
// adapter is never invoked again.
//
// Disable runs on live request paths, so it only republishes the snapshot
// with the adapter marked off. No probes run here; the next probe tick
// confirms the state.
func (s *HealthService) Disable(name string) {
	flag, ok := s.disabled[name]
	if !ok {
		return
	}
	if !flag.Swap(true) {
		logger.Warn("Adapter %s disabled: invalid credentials", name)
		s.republish(name)
	}
}

// republish copies the current snapshot with the named adapter disabled.
func (s *HealthService) republish(name string) {
	now := time.Now().UTC()
	current := s.snapshot.Load()

	next := domain.HealthSnapshot{
		Adapters: make(map[string]domain.AdapterStatus, len(current.Adapters)),
		TakenAt:  now,
	}
	for k, v := range current.Adapters {
		next.Adapters[k] = v
	}

	status := next.Adapters[name]
	status.Name = name
	status.Healthy = false
	status.Disabled = true
	status.LastError = domain.ErrAdapterDisabled.Error()
	status.CheckedAt = now
	next.Adapters[name] = status

	s.snapshot.Store(&next)
}

// Start launches the probe loop. The loop runs until Stop is called or ctx
// is cancelled.
func (s *HealthService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		defer close(s.done)

		s.probeAll(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.probeAll(ctx)
			}
		}
	}()
}

// Stop shuts the probe loop down.
func (s *HealthService) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// probeAll probes every adapter and publishes a fresh snapshot.
func (s *HealthService) probeAll(ctx context.Context) {
	next := domain.HealthSnapshot{
		Adapters: make(map[string]domain.AdapterStatus, len(s.adapters)),
		TakenAt:  time.Now().UTC(),
	}

	for _, a := range s.adapters {
		status := domain.AdapterStatus{
			Name:      a.Name(),
			Tier:      a.Tier(),
			CheckedAt: time.Now().UTC(),
		}

		if s.disabled[a.Name()].Load() {
			status.Disabled = true
			status.LastError = domain.ErrAdapterDisabled.Error()
			next.Adapters[a.Name()] = status
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, a.Timeout())
		err := a.Probe(probeCtx)
		cancel()

		if err != nil {
			status.Healthy = false
			status.LastError = err.Error()
			logger.Debug("Probe failed for %s: %v", a.Name(), err)
			if domain.IsUnauthorized(err) {
				s.disabled[a.Name()].Store(true)
				status.Disabled = true
			}
		} else {
			status.Healthy = true
		}

		next.Adapters[a.Name()] = status
	}

	s.snapshot.Store(&next)
}
