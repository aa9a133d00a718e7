package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup [id]",
	Short: "Look up a single movie by id",
	Long: `Resolves one record by its stable identifier. Sources are tried
in priority order; the first tier that knows the id answers.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "output the record as JSON")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	id := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	record, err := searchService.GetByID(context.Background(), id)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if lookupJSON {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%s\n", record.Title)
	if record.Year != nil {
		cmd.Printf("  Year:   %d\n", *record.Year)
	}
	if record.Rating != nil {
		cmd.Printf("  Rating: %.1f\n", *record.Rating)
	}
	if len(record.Genres) > 0 {
		cmd.Printf("  Genres: %s\n", strings.Join(record.Genres, ", "))
	}
	if record.Plot != "" {
		cmd.Printf("  Plot:   %s\n", record.Plot)
	}
	if record.Image != nil {
		cmd.Printf("  Image:  %s (%s)\n", record.Image.URL, record.Image.Source)
	}
	cmd.Printf("  Via:    %s / %s\n", record.Provenance.LayerUsed, record.Provenance.SourceName)

	return nil
}
