package icy

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
)

// DefaultReadTimeout bounds how long a probe waits for a metadata block
// to arrive on the wire.
const DefaultReadTimeout = 10 * time.Second

// maxBlocks bounds how many metadata blocks a probe consumes looking for
// a StreamTitle before giving up. Most servers send it in the first block.
const maxBlocks = 4

// Config bounds an ICY probe.
type Config struct {
	ReadTimeout time.Duration
	UserAgent   string
}

// DefaultConfig returns the default probe bounds.
func DefaultConfig() Config {
	return Config{
		ReadTimeout: DefaultReadTimeout,
		UserAgent:   common.DefaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = common.DefaultUserAgent
	}
	return c
}

// Probe connects to an ICY stream and pulls metadata blocks until a
// StreamTitle arrives or the read timeout fires. hint carries headers from
// an earlier request against the same URL, used as a fallback source for
// station-level fields.
//
// A stream that does not advertise icy-metaint does not speak this
// protocol; Probe declines with a (nil, nil) return rather than failing.
// The response body is closed the moment a result is decided, on every
// path, because these are long-lived audio sockets.
func Probe(ctx context.Context, client *http.Client, streamURL string, hint http.Header) (*common.NowPlaying, error) {
	return ProbeWithConfig(ctx, client, streamURL, hint, DefaultConfig())
}

// ProbeWithConfig is Probe with explicit read-timeout and user-agent bounds.
func ProbeWithConfig(ctx context.Context, client *http.Client, streamURL string, hint http.Header, cfg Config) (*common.NowPlaying, error) {
	cfg = cfg.withDefaults()

	logger := logging.WithFields(logging.Fields{
		"component": "icy_probe",
		"url":       streamURL,
	})

	req, err := http.NewRequestWithContext(ctx, "GET", streamURL, nil)
	if err != nil {
		return nil, common.NewStreamError(common.SourceICY, streamURL,
			common.ErrCodeConnection, "failed to create ICY request", err)
	}
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, common.NewStreamError(common.SourceICY, streamURL,
			common.ErrCodeConnection, "ICY connection failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, common.NewStreamError(common.SourceICY, streamURL,
			common.ErrCodeConnection,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status), nil)
	}

	metaInt, _ := strconv.Atoi(resp.Header.Get("icy-metaint"))
	if metaInt <= 0 {
		// No inline metadata on this stream; decline so the cascade can
		// fall through to other strategies.
		resp.Body.Close()
		logger.Debug("stream does not advertise icy-metaint, declining")
		return nil, nil
	}

	station := common.HeaderFirst(resp.Header, "icy-name")
	if station == "" && hint != nil {
		station = common.HeaderFirst(hint, "icy-name")
	}

	result := &common.NowPlaying{
		URL:       streamURL,
		Source:    common.SourceICY,
		Station:   station,
		Genre:     resp.Header.Get("icy-genre"),
		Timestamp: time.Now(),
	}
	if br, err := strconv.Atoi(resp.Header.Get("icy-br")); err == nil {
		result.Bitrate = br
	}
	result.SetRaw("icy-name", resp.Header.Get("icy-name"))
	result.SetRaw("icy-genre", resp.Header.Get("icy-genre"))

	reader, err := NewReader(resp.Body, metaInt)
	if err != nil {
		resp.Body.Close()
		return nil, common.NewStreamError(common.SourceICY, streamURL,
			common.ErrCodeMetadata, "invalid metadata interval", err)
	}

	type blockResult struct {
		pairs map[string]string
		err   error
	}

	blocks := make(chan blockResult, 1)
	go func() {
		for range maxBlocks {
			pairs, err := reader.ReadBlock()
			if err != nil {
				blocks <- blockResult{err: err}
				return
			}
			if pairs["StreamTitle"] != "" {
				blocks <- blockResult{pairs: pairs}
				return
			}
		}
		blocks <- blockResult{err: fmt.Errorf("no StreamTitle within %d metadata blocks", maxBlocks)}
	}()

	timer := time.NewTimer(cfg.ReadTimeout)
	defer timer.Stop()

	select {
	case br := <-blocks:
		resp.Body.Close()
		if br.err != nil {
			// Partial result: the headers already told us what station
			// this is, even if the current song never arrived.
			logger.Debug("ICY metadata read ended without a title", logging.Fields{
				"error": br.err.Error(),
			})
			result.Notes = "ICY metadata present but no current song info"
			return result, nil
		}
		streamTitle := br.pairs["StreamTitle"]
		result.Artist, result.Title = ParseStreamTitle(streamTitle)
		result.SetRaw("StreamTitle", streamTitle)
		result.SetRaw("StreamUrl", br.pairs["StreamUrl"])
		logger.Debug("ICY metadata extracted", logging.Fields{
			"stream_title": streamTitle,
		})
		return result, nil

	case <-timer.C:
		// Closing the body unblocks the reader goroutine.
		resp.Body.Close()
		logger.Debug("timeout waiting for ICY metadata block")
		result.Notes = "timeout waiting for ICY metadata"
		return result, nil

	case <-ctx.Done():
		resp.Body.Close()
		return nil, common.NewStreamError(common.SourceICY, streamURL,
			common.ErrCodeTimeout, "ICY probe canceled", ctx.Err())
	}
}
