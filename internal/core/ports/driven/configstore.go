package driven

import (
	"context"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

// ConfigStore loads and persists runtime configuration.
type ConfigStore interface {
	// Load reads the stored configuration overlaid onto defaults.
	// A missing config file yields pure defaults, not an error.
	Load() (domain.Config, error)

	// Save writes the configuration back to the store.
	Save(cfg domain.Config) error

	// Watch invokes onChange with the freshly loaded configuration each
	// time the backing file changes, until ctx is cancelled. Used to hot
	// reload the seasonal watchlist and image blocklist.
	Watch(ctx context.Context, onChange func(domain.Config)) error
}
