package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/nowplaying/configs"
	"github.com/RyanBlaney/nowplaying/pkg/enrich"
	"github.com/RyanBlaney/nowplaying/pkg/stream"
)

var (
	probeEnrich  bool
	probeTimeout time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Extract now-playing metadata from a stream URL",
	Long: `Probes a stream URL through the extraction cascade: direct transport
probe (ICY / HLS / playlist), Icecast status-JSON endpoints, HTTP header
inspection, and a raw stream re-read. Stops at the first strategy that
yields a title or station name.

The extracted title can optionally be enriched against MusicBrainz with
--enrich; enrichment failure never fails the probe.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().BoolVar(&probeEnrich, "enrich", false,
		"enrich the extracted title against MusicBrainz")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 60*time.Second,
		"overall probe deadline")
}

func runProbe(cmd *cobra.Command, args []string) error {
	config, err := configs.LoadConfig()
	if err != nil {
		return err
	}
	if err := configs.ValidateConfig(config); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
	defer cancel()

	extractor := stream.NewExtractorWithConfig(stream.Config{
		ConnectTimeout:   config.Probe.ConnectTimeout,
		ICYReadTimeout:   config.Probe.ICYReadTimeout,
		StatusTimeout:    config.Probe.StatusTimeout,
		MaxRedirects:     config.Probe.MaxRedirects,
		MaxPlaylistHops:  config.Probe.MaxPlaylistHops,
		SegmentReadLimit: config.Probe.SegmentReadLimit,
		UserAgent:        config.Probe.UserAgent,
	})
	result, err := extractor.Extract(ctx, args[0])
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	if probeEnrich && config.Enrich.Enabled && result.HasMetadata() {
		enricher := enrich.NewEnricherWithSearcher(
			enrich.NewMusicBrainzClientWithURL(config.Enrich.ServiceURL))

		if result.Artist != "" || result.Title != "" {
			result.Enriched = enricher.EnrichPair(ctx, result.Artist, result.Title)
		}
	}

	format := viper.GetString("output_format")
	if format == "text" {
		if result.HasMetadata() {
			fmt.Printf("%s [%s]\n", result.DisplayTitle(), result.Source)
		} else {
			fmt.Println(result.Notes)
		}
		return nil
	}
	return writeResult(result, format)
}
