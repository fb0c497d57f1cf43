// Package stream classifies audio stream URLs by transport and extracts
// now-playing metadata through an ordered cascade of strategies.
package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
	"github.com/RyanBlaney/nowplaying/pkg/stream/hls"
	"github.com/RyanBlaney/nowplaying/pkg/stream/icy"
	"github.com/RyanBlaney/nowplaying/pkg/stream/playlist"
)

const (
	connectTimeout = 12 * time.Second

	defaultMaxRedirects = 5

	// maxProbeHops bounds how many times a probe may chase a playlist
	// that resolved to yet another playlist URL.
	maxProbeHops = 3
)

// Prober inspects a URL plus response headers to pick the transport in
// use (ICY, HLS, playlist) and dispatches to the matching reader. It is
// the first strategy of the extraction cascade.
type Prober struct {
	client   *http.Client
	resolver *playlist.Resolver
	cfg      Config
}

// NewProber creates a prober with a default redirect-following client.
func NewProber() *Prober {
	return NewProberWithConfig(DefaultConfig())
}

// NewProberWithConfig creates a prober whose client and readers honor
// the given bounds.
func NewProberWithConfig(cfg Config) *Prober {
	cfg = cfg.withDefaults()
	return newProber(newProbeClient(cfg), cfg)
}

// NewProberWithClient creates a prober using the given HTTP client and
// default bounds.
func NewProberWithClient(client *http.Client) *Prober {
	return newProber(client, DefaultConfig())
}

func newProber(client *http.Client, cfg Config) *Prober {
	cfg = cfg.withDefaults()
	return &Prober{
		client:   client,
		resolver: playlist.NewResolverWithConfig(client, cfg.playlistConfig()),
		cfg:      cfg,
	}
}

// newProbeClient builds a redirect-capped client. The overall timeout
// covers connection plus the ICY metadata read, which is the longest
// body read any strategy performs.
func newProbeClient(cfg Config) *http.Client {
	return &http.Client{
		Timeout: cfg.ConnectTimeout + cfg.ICYReadTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// Probe classifies streamURL and extracts now-playing metadata from the
// wire protocol it speaks. A structurally invalid URL is the only
// caller-visible input error.
func (p *Prober) Probe(ctx context.Context, streamURL string) (*common.NowPlaying, error) {
	if _, err := common.ValidateURL(streamURL); err != nil {
		return nil, err
	}
	return p.probe(ctx, streamURL, 0)
}

func (p *Prober) probe(ctx context.Context, streamURL string, hop int) (*common.NowPlaying, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "prober",
		"url":       streamURL,
		"hop":       hop,
	})

	// Fast path for obvious playlist files: resolve to the media URL
	// first. Resolution failure is not fatal; the URL may still serve
	// audio directly.
	if playlist.IsPlaylistURL(streamURL) && !hls.DetectFromURL(streamURL) {
		if resolved, err := p.resolver.Resolve(ctx, streamURL); err == nil && resolved != "" {
			logger.Debug("playlist pre-resolved", logging.Fields{
				"media_url": resolved,
			})
			streamURL = resolved
		} else if err != nil {
			logger.Debug("playlist pre-resolution failed, probing original URL", logging.Fields{
				"error": err.Error(),
			})
		}
	}

	resp, err := p.connect(ctx, streamURL)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	finalURL := resp.Request.URL.String()
	headers := resp.Header

	// The classification request's body is never read; each reader opens
	// its own connection so it controls the read and the release.
	resp.Body.Close()

	// HLS first: an .m3u8 playlist also matches the generic playlist
	// suffix check below.
	if hls.DetectFromContentType(contentType) || hls.DetectFromURL(finalURL) {
		logger.Debug("classified as HLS")
		return hls.ProbeWithConfig(ctx, p.client, finalURL, p.cfg.hlsConfig())
	}

	if icy.DetectFromHeaders(headers) {
		logger.Debug("classified as ICY")
		result, err := icy.ProbeWithConfig(ctx, p.client, finalURL, headers, p.cfg.icyConfig())
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		// The server looked like ICY but advertises no metadata
		// interval. Report station-level info from headers if any.
		if station := common.HeaderFirst(headers, "icy-name"); station != "" {
			return &common.NowPlaying{
				URL:       finalURL,
				Source:    common.SourceICY,
				Station:   station,
				Genre:     headers.Get("icy-genre"),
				Notes:     "stream does not support inline metadata",
				Timestamp: time.Now(),
			}, nil
		}
	}

	// Redirects may have landed on a playlist file.
	if playlist.IsPlaylistURL(finalURL) && hop < maxProbeHops {
		if resolved, err := p.resolver.Resolve(ctx, finalURL); err == nil && resolved != finalURL {
			nested, err := p.probe(ctx, resolved, hop+1)
			if err != nil {
				return nil, err
			}
			if nested.Notes != "" {
				nested.Notes += " | resolved from " + finalURL
			} else {
				nested.Notes = "resolved from " + finalURL
			}
			return nested, nil
		}
	}

	logger.Debug("transport not recognized", logging.Fields{
		"content_type": contentType,
	})

	if contentType == "" {
		contentType = "n/a"
	}
	return &common.NowPlaying{
		URL:       finalURL,
		Source:    common.SourceUnknown,
		Notes:     fmt.Sprintf("unrecognized stream type (content-type: %s)", contentType),
		Timestamp: time.Now(),
	}, nil
}

// connect issues the classification request with the ICY metadata header,
// retrying once without it for servers that reject the header outright.
func (p *Prober) connect(ctx context.Context, streamURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", streamURL, nil)
	if err != nil {
		return nil, common.NewStreamError(common.SourceUnknown, streamURL,
			common.ErrCodeConnection, "failed to create probe request", err)
	}
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := p.client.Do(req)
	if err == nil && resp.StatusCode < 400 {
		return resp, nil
	}
	if err == nil {
		resp.Body.Close()
	}

	// Some servers 403 on the Icy-MetaData header; retry without it.
	retry, retryErr := http.NewRequestWithContext(ctx, "GET", streamURL, nil)
	if retryErr != nil {
		return nil, common.NewStreamError(common.SourceUnknown, streamURL,
			common.ErrCodeConnection, "failed to create retry request", retryErr)
	}
	retry.Header.Set("User-Agent", p.cfg.UserAgent)
	retry.Header.Set("Accept", "*/*")

	resp, err = p.client.Do(retry)
	if err != nil {
		return nil, common.NewStreamError(common.SourceUnknown, streamURL,
			common.ErrCodeConnection, "stream connection failed", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, common.NewStreamError(common.SourceUnknown, streamURL,
			common.ErrCodeConnection,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status), nil)
	}
	return resp, nil
}
