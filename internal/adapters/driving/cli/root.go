// Package cli implements the cobra command surface. Commands talk to the
// core exclusively through driving ports; the composition root injects the
// concrete services before Execute runs.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Shubham12864/cinescope/internal/core/ports/driving"
	"github.com/Shubham12864/cinescope/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var verbose bool

// Injected services. Commands guard against nil so a partially wired
// binary fails with a clear error instead of a panic.
var (
	searchService  driving.SearchService
	imageService   driving.ImageService
	healthReporter driving.HealthReporter
	serveFunc      func(ctx context.Context) error
)

// Services bundles everything the commands need.
type Services struct {
	Search driving.SearchService
	Images driving.ImageService
	Health driving.HealthReporter

	// Serve runs the HTTP API until ctx is cancelled. Used by the serve
	// command only.
	Serve func(ctx context.Context) error
}

// SetServices injects the concrete services into the command surface.
func SetServices(s Services) {
	searchService = s.Search
	imageService = s.Images
	healthReporter = s.Health
	serveFunc = s.Serve
}

var rootCmd = &cobra.Command{
	Use:   "cinescope",
	Short: "Instant movie lookup with layered resolution",
	Long: `Cinescope resolves movie queries through a layered pipeline:
an instant two-tier cache, a predictive prefetch engine, and a live
multi-source fan-out with per-tier grace windows.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
