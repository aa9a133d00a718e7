package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show adapter health and cache statistics",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if healthReporter == nil {
		return errors.New("health reporter not configured")
	}

	snap := healthReporter.Snapshot()

	names := make([]string, 0, len(snap.Adapters))
	for name := range snap.Adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Println("Adapters:")
	for _, name := range names {
		st := snap.Adapters[name]
		state := "healthy"
		switch {
		case st.Disabled:
			state = "disabled"
		case !st.Healthy:
			state = "unhealthy"
		}
		cmd.Printf("  %-10s tier=%d %s", st.Name, st.Tier, state)
		if st.LastError != "" {
			cmd.Printf(" (%s)", st.LastError)
		}
		cmd.Println()
	}

	stats := healthReporter.CacheStats()
	cmd.Println()
	cmd.Println("Cache:")
	cmd.Printf("  memory hits:     %d\n", stats.MemoryHits)
	cmd.Printf("  persistent hits: %d\n", stats.PersistentHits)
	cmd.Printf("  misses:          %d\n", stats.Misses)
	cmd.Printf("  shared:          %d\n", stats.Shared)
	cmd.Printf("  swept:           %d\n", stats.Swept)

	return nil
}
