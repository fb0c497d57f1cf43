package stream

import (
	"time"

	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
	"github.com/RyanBlaney/nowplaying/pkg/stream/hls"
	"github.com/RyanBlaney/nowplaying/pkg/stream/icy"
	"github.com/RyanBlaney/nowplaying/pkg/stream/playlist"
)

// Config bounds the network behavior of the extraction cascade and the
// transport readers it dispatches to. Zero fields fall back to defaults.
type Config struct {
	ConnectTimeout   time.Duration
	ICYReadTimeout   time.Duration
	StatusTimeout    time.Duration
	MaxRedirects     int
	MaxPlaylistHops  int
	SegmentReadLimit int
	UserAgent        string
}

// DefaultConfig returns the default extraction bounds.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   connectTimeout,
		ICYReadTimeout:   icy.DefaultReadTimeout,
		StatusTimeout:    statusEndpointTimeout,
		MaxRedirects:     defaultMaxRedirects,
		MaxPlaylistHops:  playlist.MaxHops,
		SegmentReadLimit: hls.SegmentReadLimit,
		UserAgent:        common.DefaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ICYReadTimeout <= 0 {
		c.ICYReadTimeout = def.ICYReadTimeout
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = def.StatusTimeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = def.MaxRedirects
	}
	if c.MaxPlaylistHops <= 0 {
		c.MaxPlaylistHops = def.MaxPlaylistHops
	}
	if c.SegmentReadLimit <= 0 {
		c.SegmentReadLimit = def.SegmentReadLimit
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	return c
}

func (c Config) icyConfig() icy.Config {
	return icy.Config{
		ReadTimeout: c.ICYReadTimeout,
		UserAgent:   c.UserAgent,
	}
}

func (c Config) hlsConfig() hls.Config {
	return hls.Config{
		Timeout:          c.ConnectTimeout,
		SegmentReadLimit: c.SegmentReadLimit,
		UserAgent:        c.UserAgent,
	}
}

func (c Config) playlistConfig() playlist.Config {
	return playlist.Config{
		Timeout:   c.ConnectTimeout,
		MaxHops:   c.MaxPlaylistHops,
		UserAgent: c.UserAgent,
	}
}
