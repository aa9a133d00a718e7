package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Shubham12864/cinescope/internal/core/domain"
)

var (
	searchLimit    int
	searchJSON     bool
	searchYearFrom int
	searchYearTo   int
	searchGenre    string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for movies",
	Long: `Resolves a movie query through the layered pipeline.
Cached queries answer instantly; cold queries fan out across the
configured sources in priority order.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().IntVar(&searchYearFrom, "year-from", 0, "only results from this year onward")
	searchCmd.Flags().IntVar(&searchYearTo, "year-to", 0, "only results up to this year")
	searchCmd.Flags().StringVar(&searchGenre, "genre", "", "only results carrying this genre")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit: searchLimit,
		Genre: searchGenre,
	}
	if searchYearFrom > 0 {
		opts.YearFrom = &searchYearFrom
	}
	if searchYearTo > 0 {
		opts.YearTo = &searchYearTo
	}

	resp, err := searchService.Search(context.Background(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}

	return outputSearchTable(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s, %dms):\n", resp.Provenance.LayerUsed, resp.Provenance.LatencyMs)
	cmd.Println()
	for i := range resp.Results {
		r := &resp.Results[i]

		year := "----"
		if r.Year != nil {
			year = fmt.Sprintf("%d", *r.Year)
		}

		cmd.Printf("  [%d] %s (%s)\n", i+1, r.Title, year)
		if r.Rating != nil {
			cmd.Printf("      Rating: %.1f\n", *r.Rating)
		}
		if len(r.Genres) > 0 {
			cmd.Printf("      Genres: %s\n", strings.Join(r.Genres, ", "))
		}
		cmd.Printf("      Source: %s (%.2f)\n", r.Provenance.SourceName, r.Provenance.ConfidenceScore)
		cmd.Println()
	}

	for name, msg := range resp.SourceErrors {
		cmd.Printf("  warning: %s: %s\n", name, msg)
	}

	return nil
}
