package domain

import "time"

// AdapterStatus is one adapter's availability at a point in time.
type AdapterStatus struct {
	// Name is the adapter name.
	Name string `json:"name"`

	// Tier is the adapter's priority tier.
	Tier SourceTier `json:"tier"`

	// Healthy is the result of the most recent probe.
	Healthy bool `json:"healthy"`

	// Disabled is true when the adapter is off for the process lifetime
	// (unauthorized configuration).
	Disabled bool `json:"disabled"`

	// LastError is the most recent probe failure, empty when healthy.
	LastError string `json:"lastError,omitempty"`

	// CheckedAt is when the adapter was last probed.
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthSnapshot is an immutable view of all adapter statuses. The
// orchestrator takes one snapshot per request; the health loop publishes
// new snapshots rather than mutating shared flags.
type HealthSnapshot struct {
	// Adapters holds the per-adapter status, keyed by adapter name.
	Adapters map[string]AdapterStatus `json:"adapters"`

	// TakenAt is when the snapshot was published.
	TakenAt time.Time `json:"takenAt"`
}

// Usable reports whether the named adapter may be invoked.
// Unknown adapters are considered usable; the probe loop will catch up.
func (s HealthSnapshot) Usable(name string) bool {
	st, ok := s.Adapters[name]
	if !ok {
		return true
	}
	return !st.Disabled
}
