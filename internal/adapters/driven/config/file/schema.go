package file

import (
	"fmt"
	"time"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// fileConfig is the on-disk TOML shape. Durations are written as strings
// ("4s", "30m") and every field is optional; zero values mean "keep the
// default".
type fileConfig struct {
	Sources  sourcesSection  `toml:"sources"`
	Cache    cacheSection    `toml:"cache"`
	Prefetch prefetchSection `toml:"prefetch"`
	Images   imagesSection   `toml:"images"`
	HTTP     httpSection     `toml:"http"`
}

type sourcesSection struct {
	OMDbAPIKey          string  `toml:"omdb_api_key,omitempty"`
	PrimaryTimeout      string  `toml:"primary_timeout,omitempty"`
	SecondaryTimeout    string  `toml:"secondary_timeout,omitempty"`
	TertiaryTimeout     string  `toml:"tertiary_timeout,omitempty"`
	GraceWindow         string  `toml:"grace_window,omitempty"`
	ConfidenceThreshold float64 `toml:"confidence_threshold,omitempty"`
	GlobalConcurrency   int64   `toml:"global_concurrency,omitempty"`
	HealthInterval      string  `toml:"health_interval,omitempty"`
}

type cacheSection struct {
	MemoryCapacity int    `toml:"memory_capacity,omitempty"`
	SearchTTL      string `toml:"search_ttl,omitempty"`
	RecordTTL      string `toml:"record_ttl,omitempty"`
	SweepInterval  string `toml:"sweep_interval,omitempty"`
}

type prefetchSection struct {
	Enabled            *bool           `toml:"enabled,omitempty"`
	Workers            int64           `toml:"workers,omitempty"`
	FrequencyThreshold int64           `toml:"frequency_threshold,omitempty"`
	RefreshLead        string          `toml:"refresh_lead,omitempty"`
	DecayInterval      string          `toml:"decay_interval,omitempty"`
	Watchlist          []seasonalEntry `toml:"watchlist,omitempty"`
}

type seasonalEntry struct {
	Query  string `toml:"query"`
	Months []int  `toml:"months"`
}

type imagesSection struct {
	ProviderTimeout    string   `toml:"provider_timeout,omitempty"`
	MaxBytes           int64    `toml:"max_bytes,omitempty"`
	CacheTTL           string   `toml:"cache_ttl,omitempty"`
	BlocklistedDomains []string `toml:"blocklisted_domains,omitempty"`
}

type httpSection struct {
	Addr string `toml:"addr,omitempty"`
}

// overlay applies the file's non-zero values onto cfg.
func (fc fileConfig) overlay(cfg *domain.Config) error {
	if fc.Sources.OMDbAPIKey != "" {
		cfg.Sources.OMDbAPIKey = fc.Sources.OMDbAPIKey
	}
	if err := setDuration(&cfg.Sources.PrimaryTimeout, fc.Sources.PrimaryTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Sources.SecondaryTimeout, fc.Sources.SecondaryTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Sources.TertiaryTimeout, fc.Sources.TertiaryTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Sources.GraceWindow, fc.Sources.GraceWindow); err != nil {
		return err
	}
	if fc.Sources.ConfidenceThreshold > 0 {
		cfg.Sources.ConfidenceThreshold = fc.Sources.ConfidenceThreshold
	}
	if fc.Sources.GlobalConcurrency > 0 {
		cfg.Sources.GlobalConcurrency = fc.Sources.GlobalConcurrency
	}
	if err := setDuration(&cfg.Sources.HealthInterval, fc.Sources.HealthInterval); err != nil {
		return err
	}

	if fc.Cache.MemoryCapacity > 0 {
		cfg.Cache.MemoryCapacity = fc.Cache.MemoryCapacity
	}
	if err := setDuration(&cfg.Cache.SearchTTL, fc.Cache.SearchTTL); err != nil {
		return err
	}
	if err := setDuration(&cfg.Cache.RecordTTL, fc.Cache.RecordTTL); err != nil {
		return err
	}
	if err := setDuration(&cfg.Cache.SweepInterval, fc.Cache.SweepInterval); err != nil {
		return err
	}

	if fc.Prefetch.Enabled != nil {
		cfg.Prefetch.Enabled = *fc.Prefetch.Enabled
	}
	if fc.Prefetch.Workers > 0 {
		cfg.Prefetch.Workers = fc.Prefetch.Workers
	}
	if fc.Prefetch.FrequencyThreshold > 0 {
		cfg.Prefetch.FrequencyThreshold = fc.Prefetch.FrequencyThreshold
	}
	if err := setDuration(&cfg.Prefetch.RefreshLead, fc.Prefetch.RefreshLead); err != nil {
		return err
	}
	if err := setDuration(&cfg.Prefetch.DecayInterval, fc.Prefetch.DecayInterval); err != nil {
		return err
	}
	if len(fc.Prefetch.Watchlist) > 0 {
		cfg.Prefetch.Watchlist = make([]domain.SeasonalEntry, 0, len(fc.Prefetch.Watchlist))
		for _, e := range fc.Prefetch.Watchlist {
			cfg.Prefetch.Watchlist = append(cfg.Prefetch.Watchlist, domain.SeasonalEntry{
				Query:  e.Query,
				Months: e.Months,
			})
		}
	}

	if err := setDuration(&cfg.Images.ProviderTimeout, fc.Images.ProviderTimeout); err != nil {
		return err
	}
	if fc.Images.MaxBytes > 0 {
		cfg.Images.MaxBytes = fc.Images.MaxBytes
	}
	if err := setDuration(&cfg.Images.CacheTTL, fc.Images.CacheTTL); err != nil {
		return err
	}
	if len(fc.Images.BlocklistedDomains) > 0 {
		cfg.Images.BlocklistedDomains = fc.Images.BlocklistedDomains
	}

	if fc.HTTP.Addr != "" {
		cfg.HTTP.Addr = fc.HTTP.Addr
	}

	return nil
}

// fromDomain produces the full on-disk shape for Save.
func fromDomain(cfg domain.Config) fileConfig {
	watchlist := make([]seasonalEntry, 0, len(cfg.Prefetch.Watchlist))
	for _, e := range cfg.Prefetch.Watchlist {
		watchlist = append(watchlist, seasonalEntry{Query: e.Query, Months: e.Months})
	}

	enabled := cfg.Prefetch.Enabled
	return fileConfig{
		Sources: sourcesSection{
			OMDbAPIKey:          cfg.Sources.OMDbAPIKey,
			PrimaryTimeout:      cfg.Sources.PrimaryTimeout.String(),
			SecondaryTimeout:    cfg.Sources.SecondaryTimeout.String(),
			TertiaryTimeout:     cfg.Sources.TertiaryTimeout.String(),
			GraceWindow:         cfg.Sources.GraceWindow.String(),
			ConfidenceThreshold: cfg.Sources.ConfidenceThreshold,
			GlobalConcurrency:   cfg.Sources.GlobalConcurrency,
			HealthInterval:      cfg.Sources.HealthInterval.String(),
		},
		Cache: cacheSection{
			MemoryCapacity: cfg.Cache.MemoryCapacity,
			SearchTTL:      cfg.Cache.SearchTTL.String(),
			RecordTTL:      cfg.Cache.RecordTTL.String(),
			SweepInterval:  cfg.Cache.SweepInterval.String(),
		},
		Prefetch: prefetchSection{
			Enabled:            &enabled,
			Workers:            cfg.Prefetch.Workers,
			FrequencyThreshold: cfg.Prefetch.FrequencyThreshold,
			RefreshLead:        cfg.Prefetch.RefreshLead.String(),
			DecayInterval:      cfg.Prefetch.DecayInterval.String(),
			Watchlist:          watchlist,
		},
		Images: imagesSection{
			ProviderTimeout:    cfg.Images.ProviderTimeout.String(),
			MaxBytes:           cfg.Images.MaxBytes,
			CacheTTL:           cfg.Images.CacheTTL.String(),
			BlocklistedDomains: cfg.Images.BlocklistedDomains,
		},
		HTTP: httpSection{
			Addr: cfg.HTTP.Addr,
		},
	}
}

// setDuration parses raw into dst when raw is non-empty.
func setDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*dst = d
	return nil
}
