// Package hls resolves HLS playlist chains and reads the timed ID3
// metadata embedded near the start of media segments.
//
// Only the first available segment is inspected, so the extracted track is
// strictly "recently playing" for a live stream. That approximation is
// deliberate; polling for freshness is the caller's policy.
package hls

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
)

const (
	// SegmentReadLimit caps the ranged segment read. A timed ID3 tag, if
	// present, sits in the first bytes of the segment.
	SegmentReadLimit = 512 * 1024

	defaultTimeout = 12 * time.Second

	maxPlaylistBytes = 1024 * 1024
)

// Config bounds an HLS probe.
type Config struct {
	Timeout          time.Duration
	SegmentReadLimit int
	UserAgent        string
}

// DefaultConfig returns the default probe bounds.
func DefaultConfig() Config {
	return Config{
		Timeout:          defaultTimeout,
		SegmentReadLimit: SegmentReadLimit,
		UserAgent:        common.DefaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.SegmentReadLimit <= 0 {
		c.SegmentReadLimit = SegmentReadLimit
	}
	if c.UserAgent == "" {
		c.UserAgent = common.DefaultUserAgent
	}
	return c
}

// playlistRef is the outcome of fetching one .m3u8 document: either a
// nested media playlist or a direct segment reference.
type playlistRef struct {
	mediaPlaylistURL string
	segmentURL       string
}

// Probe resolves streamURL through at most one master-to-media hop, fetches
// the head of the first segment, and extracts TIT2/TPE1 from any embedded
// ID3v2 tag.
func Probe(ctx context.Context, client *http.Client, streamURL string) (*common.NowPlaying, error) {
	return ProbeWithConfig(ctx, client, streamURL, DefaultConfig())
}

// ProbeWithConfig is Probe with explicit fetch and read bounds.
func ProbeWithConfig(ctx context.Context, client *http.Client, streamURL string, cfg Config) (*common.NowPlaying, error) {
	cfg = cfg.withDefaults()

	logger := logging.WithFields(logging.Fields{
		"component": "hls_probe",
		"url":       streamURL,
	})

	first, err := resolveFirst(ctx, client, streamURL, cfg)
	if err != nil {
		return nil, err
	}

	segmentURL := first.segmentURL
	if segmentURL == "" && first.mediaPlaylistURL != "" {
		logger.Debug("master playlist resolved, descending to media playlist", logging.Fields{
			"media_playlist": first.mediaPlaylistURL,
		})
		second, err := resolveFirst(ctx, client, first.mediaPlaylistURL, cfg)
		if err != nil {
			return nil, err
		}
		segmentURL = second.segmentURL
	}

	if segmentURL == "" {
		return &common.NowPlaying{
			URL:       streamURL,
			Source:    common.SourcePlaylist,
			Notes:     "HLS playlist found but no segment discovered",
			Timestamp: time.Now(),
		}, nil
	}

	return probeSegment(ctx, client, segmentURL, cfg)
}

// resolveFirst fetches one playlist document. Nested .m3u8 references mean
// a master playlist: the first variant is chosen. Otherwise the first
// non-comment entry is taken as a segment, resolved against the playlist's
// final URL.
func resolveFirst(ctx context.Context, client *http.Client, playlistURL string, cfg Config) (*playlistRef, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, "GET", playlistURL, nil)
	if err != nil {
		return nil, common.NewStreamError(common.SourceHLSID3, playlistURL,
			common.ErrCodeConnection, "failed to create playlist request", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/vnd.apple.mpegurl,application/x-mpegurl,text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return nil, common.NewStreamError(common.SourceHLSID3, playlistURL,
			common.ErrCodeConnection, "failed to fetch HLS playlist", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewStreamError(common.SourceHLSID3, playlistURL,
			common.ErrCodeConnection,
			fmt.Sprintf("HLS playlist fetch returned HTTP %d", resp.StatusCode), nil)
	}

	base := resp.Request.URL

	var firstEntry, firstNested string
	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxPlaylistBytes))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if firstNested == "" && strings.Contains(strings.ToLower(line), ".m3u8") {
			firstNested = line
		}
		if firstEntry == "" {
			firstEntry = line
		}
		if firstEntry != "" && firstNested != "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, common.NewStreamError(common.SourceHLSID3, playlistURL,
			common.ErrCodeParse, "failed to read HLS playlist", err)
	}

	if firstNested != "" {
		return &playlistRef{mediaPlaylistURL: resolveRef(base, firstNested)}, nil
	}
	if firstEntry != "" {
		return &playlistRef{segmentURL: resolveRef(base, firstEntry)}, nil
	}

	return &playlistRef{}, nil
}

// probeSegment fetches the head of a media segment with a ranged request
// and scans it for an ID3v2 tag.
func probeSegment(ctx context.Context, client *http.Client, segmentURL string, cfg Config) (*common.NowPlaying, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "hls_probe",
		"segment":   segmentURL,
	})

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, "GET", segmentURL, nil)
	if err != nil {
		return nil, common.NewStreamError(common.SourceHLSID3, segmentURL,
			common.ErrCodeConnection, "failed to create segment request", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", cfg.SegmentReadLimit-1))

	resp, err := client.Do(req)
	if err != nil {
		return nil, common.NewStreamError(common.SourceHLSID3, segmentURL,
			common.ErrCodeConnection, "failed to fetch HLS segment", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, common.NewStreamError(common.SourceHLSID3, segmentURL,
			common.ErrCodeConnection,
			fmt.Sprintf("segment fetch returned HTTP %d", resp.StatusCode), nil)
	}

	// Servers that ignore the Range header stream the whole segment; the
	// limit reader keeps the read bounded either way.
	buf, err := io.ReadAll(io.LimitReader(resp.Body, int64(cfg.SegmentReadLimit)))
	if err != nil && len(buf) == 0 {
		return nil, common.NewStreamError(common.SourceHLSID3, segmentURL,
			common.ErrCodeConnection, "failed to read segment body", err)
	}

	result := &common.NowPlaying{
		URL:       segmentURL,
		Source:    common.SourceHLSID3,
		Timestamp: time.Now(),
	}

	tag := ParseTag(buf)
	if tag == nil {
		logger.Debug("no ID3 timed metadata in first segment", logging.Fields{
			"bytes_scanned": len(buf),
		})
		result.Notes = "no ID3 timed metadata found in first segment"
		return result, nil
	}

	result.Title = tag.Title()
	result.Artist = tag.Artist()
	for _, frame := range tag.Frames {
		result.SetRaw(frame.ID, frame.Text)
	}

	logger.Debug("ID3 timed metadata extracted", logging.Fields{
		"id3_version": tag.Version,
		"frames":      len(tag.Frames),
	})

	return result, nil
}

// resolveRef resolves a possibly-relative playlist entry against base.
func resolveRef(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
