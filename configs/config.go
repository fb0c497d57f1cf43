package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Probe configuration
	Probe ProbeConfig `mapstructure:"probe"`

	// Enrichment configuration
	Enrich EnrichConfig `mapstructure:"enrich"`
}

// ProbeConfig contains stream probing settings
type ProbeConfig struct {
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	ICYReadTimeout   time.Duration `mapstructure:"icy_read_timeout"`
	StatusTimeout    time.Duration `mapstructure:"status_timeout"`
	MaxRedirects     int           `mapstructure:"max_redirects"`
	MaxPlaylistHops  int           `mapstructure:"max_playlist_hops"`
	SegmentReadLimit int           `mapstructure:"segment_read_limit"`
	UserAgent        string        `mapstructure:"user_agent"`
}

// EnrichConfig contains canonical-search enrichment settings
type EnrichConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	ServiceURL string        `mapstructure:"service_url"`
	RateLimit  time.Duration `mapstructure:"rate_limit"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Probe.ConnectTimeout <= 0 {
		return fmt.Errorf("probe connect timeout must be positive")
	}

	if config.Probe.ICYReadTimeout <= 0 {
		return fmt.Errorf("ICY read timeout must be positive")
	}

	if config.Probe.MaxPlaylistHops <= 0 {
		return fmt.Errorf("max playlist hops must be positive")
	}

	if config.Probe.SegmentReadLimit <= 0 {
		return fmt.Errorf("segment read limit must be positive")
	}

	if config.Enrich.Enabled && config.Enrich.RateLimit <= 0 {
		return fmt.Errorf("enrichment rate limit must be positive")
	}

	return nil
}
