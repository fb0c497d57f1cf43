package configs

import "github.com/spf13/viper"

// SetDefaults registers default configuration values with viper.
func SetDefaults() {
	// Application defaults
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("output_format", "json")

	// Probe defaults
	viper.SetDefault("probe.connect_timeout", "12s")
	viper.SetDefault("probe.icy_read_timeout", "10s")
	viper.SetDefault("probe.status_timeout", "5s")
	viper.SetDefault("probe.max_redirects", 5)
	viper.SetDefault("probe.max_playlist_hops", 5)
	viper.SetDefault("probe.segment_read_limit", 524288)
	viper.SetDefault("probe.user_agent", "nowplaying-probe/1.0")

	// Enrichment defaults
	viper.SetDefault("enrich.enabled", true)
	viper.SetDefault("enrich.service_url", "https://musicbrainz.org/ws/2")
	viper.SetDefault("enrich.rate_limit", "1s")
}
