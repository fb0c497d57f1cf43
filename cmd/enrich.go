package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/nowplaying/configs"
	"github.com/RyanBlaney/nowplaying/pkg/enrich"
)

var enrichTimeout time.Duration

var enrichCmd = &cobra.Command{
	Use:   "enrich [title...]",
	Short: "Enrich raw titles against MusicBrainz",
	Long: `Resolves raw now-playing titles (e.g. "Artist - Title") to canonical
recording metadata via the MusicBrainz search API. Each result carries a
confidence tier derived from the search score; titles that cannot be
resolved fall back to the raw split with low or no confidence.

Titles are taken from arguments, or one per line from stdin when no
arguments are given. Batches are processed sequentially and rate limited
to respect the MusicBrainz usage policy.`,
	Args: cobra.ArbitraryArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().DurationVar(&enrichTimeout, "timeout", 2*time.Minute,
		"overall enrichment deadline")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	config, err := configs.LoadConfig()
	if err != nil {
		return err
	}

	items := args
	if len(items) == 0 {
		items, err = readLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read titles from stdin: %w", err)
		}
	}
	if len(items) == 0 {
		return fmt.Errorf("no titles to enrich")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), enrichTimeout)
	defer cancel()

	enricher := enrich.NewEnricherWithSearcher(
		enrich.NewMusicBrainzClientWithURL(config.Enrich.ServiceURL))

	results := enricher.EnrichBatch(ctx, items)

	format := viper.GetString("output_format")
	if format == "text" {
		for _, meta := range results {
			fmt.Printf("%s - %s [%s/%s]\n", meta.Artist, meta.Title, meta.Confidence, meta.Source)
		}
		return nil
	}
	return writeResult(results, format)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
