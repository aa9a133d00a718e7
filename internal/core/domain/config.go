package domain

import "time"

// Config is the full runtime configuration, loaded from the TOML config
// store and overlaid onto defaults.
type Config struct {
	// Sources configures the three adapter tiers.
	Sources SourcesConfig

	// Cache configures the instant cache.
	Cache CacheConfig

	// Prefetch configures the background prefetch engine.
	Prefetch PrefetchConfig

	// Images configures the image resolution pipeline.
	Images ImagesConfig

	// HTTP configures the API server.
	HTTP HTTPConfig
}

// SourcesConfig holds per-tier adapter settings.
type SourcesConfig struct {
	// OMDbAPIKey authenticates against the primary provider.
	OMDbAPIKey string

	// PrimaryTimeout bounds one primary adapter call.
	PrimaryTimeout time.Duration

	// SecondaryTimeout bounds one secondary adapter call.
	SecondaryTimeout time.Duration

	// TertiaryTimeout bounds one tertiary adapter call.
	TertiaryTimeout time.Duration

	// GraceWindow is how long the orchestrator waits on a tier before
	// starting the next one.
	GraceWindow time.Duration

	// ConfidenceThreshold is the minimum confidence for a result to count
	// toward the short-circuit quota.
	ConfidenceThreshold float64

	// GlobalConcurrency caps in-flight adapter calls across all requests.
	GlobalConcurrency int64

	// HealthInterval is how often the health loop re-probes adapters.
	HealthInterval time.Duration
}

// CacheConfig holds instant cache settings.
type CacheConfig struct {
	// MemoryCapacity bounds the in-process LRU tier.
	MemoryCapacity int

	// SearchTTL is the lifetime of volatile search entries (1-6h).
	SearchTTL time.Duration

	// RecordTTL is the lifetime of single-record detail entries (12-24h).
	RecordTTL time.Duration

	// SweepInterval is how often the persistent tier is swept for
	// expired entries.
	SweepInterval time.Duration
}

// PrefetchConfig holds prefetch engine settings.
type PrefetchConfig struct {
	// Enabled is the master switch.
	Enabled bool

	// Workers caps concurrent prefetch resolutions. Kept deliberately
	// smaller than the live budget so prefetch never starves live traffic.
	Workers int64

	// FrequencyThreshold is the observation count at which a query is
	// scheduled for proactive refresh.
	FrequencyThreshold int64

	// RefreshLead is how far before TTL expiry a hot entry is refreshed.
	RefreshLead time.Duration

	// DecayInterval is how often pattern frequencies are halved.
	DecayInterval time.Duration

	// Watchlist boosts the given queries during their season
	// (e.g. "christmas movies" in December).
	Watchlist []SeasonalEntry
}

// SeasonalEntry pins a query to the months it should be boosted in.
type SeasonalEntry struct {
	// Query is the watchlist query.
	Query string

	// Months are 1-12 month numbers in which the boost applies.
	Months []int
}

// Active reports whether the entry applies at the given time.
func (e SeasonalEntry) Active(now time.Time) bool {
	m := int(now.Month())
	for _, em := range e.Months {
		if em == m {
			return true
		}
	}
	return false
}

// ImagesConfig holds image pipeline settings.
type ImagesConfig struct {
	// ProviderTimeout bounds the priority provider lookup.
	ProviderTimeout time.Duration

	// MaxBytes rejects oversized fetched payloads.
	MaxBytes int64

	// CacheTTL is the advertised lifetime for served images.
	CacheTTL time.Duration

	// BlocklistedDomains are hosts whose candidate URLs are always skipped.
	BlocklistedDomains []string
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	// Addr is the listen address.
	Addr string
}

// DefaultConfig returns sensible defaults for all components.
func DefaultConfig() Config {
	return Config{
		Sources: SourcesConfig{
			PrimaryTimeout:      4 * time.Second,
			SecondaryTimeout:    6 * time.Second,
			TertiaryTimeout:     8 * time.Second,
			GraceWindow:         600 * time.Millisecond,
			ConfidenceThreshold: 0.5,
			GlobalConcurrency:   12,
			HealthInterval:      5 * time.Minute,
		},
		Cache: CacheConfig{
			MemoryCapacity: 2048,
			SearchTTL:      3 * time.Hour,
			RecordTTL:      18 * time.Hour,
			SweepInterval:  15 * time.Minute,
		},
		Prefetch: PrefetchConfig{
			Enabled:            true,
			Workers:            2,
			FrequencyThreshold: 3,
			RefreshLead:        30 * time.Minute,
			DecayInterval:      6 * time.Hour,
		},
		Images: ImagesConfig{
			ProviderTimeout: 2 * time.Second,
			MaxBytes:        5 << 20,
			CacheTTL:        24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}
