package domain

import "time"

// EntryKind distinguishes cached payload types, which carry different TTLs.
type EntryKind string

// Cache entry kinds.
const (
	// EntrySearch is a cached search response. Volatile, short TTL.
	EntrySearch EntryKind = "search"

	// EntryRecord is a cached single-record detail. Canonical metadata
	// changes rarely, so these carry a long TTL.
	EntryRecord EntryKind = "record"
)

// CacheEntry is one cached resolution, keyed by normalized query or record id.
type CacheEntry struct {
	// Key is the normalized cache key (see SearchKey, RecordKey).
	Key string

	// Kind determines the TTL class.
	Kind EntryKind

	// Records is the cached payload.
	Records []CanonicalRecord

	// Provenance is the provenance of the original resolution.
	Provenance Provenance

	// InsertedAt is when the entry was written.
	InsertedAt time.Time

	// ExpiresAt is when the entry stops being served.
	// Invariant: ExpiresAt is strictly after InsertedAt.
	ExpiresAt time.Time

	// HitCount is how many times the entry has been served.
	HitCount int64
}

// Expired reports whether the entry is past its TTL at the given instant.
// Expired entries are invisible immediately; the periodic sweep only
// reclaims their storage.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheStats counts cache layer activity for the health endpoint.
type CacheStats struct {
	// MemoryHits counts lookups answered by the in-process tier.
	MemoryHits int64 `json:"memoryHits"`

	// PersistentHits counts lookups answered by the persistent tier.
	PersistentHits int64 `json:"persistentHits"`

	// Misses counts lookups that fell through both tiers.
	Misses int64 `json:"misses"`

	// Shared counts lookups collapsed into another in-flight resolution.
	Shared int64 `json:"shared"`

	// Swept counts entries removed by the TTL sweep.
	Swept int64 `json:"swept"`
}
