package stream

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
	"github.com/RyanBlaney/nowplaying/pkg/stream/icy"
)

// ProbeHeaders performs a lightweight existence check: a HEAD request with
// the ICY metadata header, reading only station-level response headers.
// Shoutcast-era servers spell icy-* as ice-* or x-audiocast-*.
func ProbeHeaders(ctx context.Context, client *http.Client, streamURL string) (*common.NowPlaying, error) {
	return ProbeHeadersWithConfig(ctx, client, streamURL, DefaultConfig())
}

// ProbeHeadersWithConfig is ProbeHeaders with explicit request bounds.
func ProbeHeadersWithConfig(ctx context.Context, client *http.Client, streamURL string, cfg Config) (*common.NowPlaying, error) {
	cfg = cfg.withDefaults()

	logger := logging.WithFields(logging.Fields{
		"component": "header_probe",
		"url":       streamURL,
	})

	probeCtx, cancel := context.WithTimeout(ctx, cfg.StatusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, "HEAD", streamURL, nil)
	if err != nil {
		return nil, common.NewStreamError(common.SourceHeaders, streamURL,
			common.ErrCodeConnection, "failed to create header probe request", err)
	}
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, common.NewStreamError(common.SourceHeaders, streamURL,
			common.ErrCodeConnection, "header probe failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, common.NewStreamError(common.SourceHeaders, streamURL,
			common.ErrCodeConnection, "header probe returned "+resp.Status, nil)
	}

	h := resp.Header
	result := &common.NowPlaying{
		URL:       streamURL,
		Source:    common.SourceHeaders,
		Station:   common.HeaderFirst(h, "icy-name", "ice-name", "x-audiocast-name"),
		Genre:     common.HeaderFirst(h, "icy-genre", "ice-genre", "x-audiocast-genre"),
		Timestamp: time.Now(),
	}

	if desc := common.HeaderFirst(h, "icy-description", "ice-description", "x-audiocast-description"); desc != "" {
		result.SetRaw("description", desc)
	}

	if br := common.HeaderFirst(h, "icy-br", "ice-audio-info"); br != "" {
		result.SetRaw("bitrate", br)
		if n, err := strconv.Atoi(br); err == nil {
			result.Bitrate = n
		}
	}

	// A current-song header is rare but authoritative when present.
	if current := common.HeaderFirst(h, "icy-title", "ice-title"); current != "" {
		result.SetRaw("icy-title", current)
		artist, title := icy.ParseStreamTitle(current)
		result.Artist = artist
		result.Title = title
	}

	if !result.HasMetadata() {
		logger.Debug("no station-level headers present")
		return nil, nil
	}

	logger.Debug("station metadata from headers", logging.Fields{
		"station":   result.Station,
		"has_title": result.Title != "",
	})
	return result, nil
}
