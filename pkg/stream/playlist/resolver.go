// Package playlist follows M3U, M3U8 and PLS text playlists to the media
// URL they reference.
package playlist

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
	// MaxHops bounds playlist-to-playlist indirection so referential
	// cycles terminate.
	MaxHops = 5

	defaultTimeout = 12 * time.Second

	// Playlists are tiny text files; anything bigger is not a playlist.
	maxPlaylistBytes = 256 * 1024
)

// Config bounds playlist resolution.
type Config struct {
	Timeout   time.Duration
	MaxHops   int
	UserAgent string
}

// DefaultConfig returns the default resolution bounds.
func DefaultConfig() Config {
	return Config{
		Timeout:   defaultTimeout,
		MaxHops:   MaxHops,
		UserAgent: common.DefaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxHops <= 0 {
		c.MaxHops = MaxHops
	}
	if c.UserAgent == "" {
		c.UserAgent = common.DefaultUserAgent
	}
	return c
}

// Resolver fetches playlist files and extracts the first media URL.
type Resolver struct {
	client *http.Client
	cfg    Config
}

// NewResolver creates a resolver with the default bounded timeout.
func NewResolver() *Resolver {
	return NewResolverWithClient(&http.Client{Timeout: defaultTimeout})
}

// NewResolverWithClient creates a resolver using the given HTTP client.
func NewResolverWithClient(client *http.Client) *Resolver {
	return NewResolverWithConfig(client, DefaultConfig())
}

// NewResolverWithConfig creates a resolver with explicit bounds.
func NewResolverWithConfig(client *http.Client, cfg Config) *Resolver {
	return &Resolver{client: client, cfg: cfg.withDefaults()}
}

// IsPlaylistURL reports whether the URL path suffix suggests a playlist file.
func IsPlaylistURL(streamURL string) bool {
	u, err := url.Parse(streamURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	return strings.HasSuffix(path, ".m3u") ||
		strings.HasSuffix(path, ".m3u8") ||
		strings.HasSuffix(path, ".pls")
}

// isM3U8URL matches only the HLS playlist suffix, not .m3u/.pls.
func isM3U8URL(streamURL string) bool {
	u, err := url.Parse(streamURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".m3u8")
}

// Resolve follows playlistURL until it reaches a non-playlist media URL,
// hopping through nested playlists up to MaxHops times.
func (r *Resolver) Resolve(ctx context.Context, playlistURL string) (string, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "playlist_resolver",
		"url":       playlistURL,
	})

	current := playlistURL
	for hop := 0; hop < r.cfg.MaxHops; hop++ {
		next, err := r.resolveOnce(ctx, current)
		if err != nil {
			return "", err
		}
		if next == "" {
			return "", common.NewStreamError(common.SourcePlaylist, current,
				common.ErrCodeParse, "playlist contains no media URL", nil)
		}
		// An .m3u8 reference is handed back unfetched: HLS playlists are
		// the HLS reader's to resolve, and fetching one here would choke
		// on media playlists that list only segments.
		if isM3U8URL(next) {
			logger.Debug("playlist resolved to HLS playlist", logging.Fields{
				"media_url": next,
				"hops":      hop + 1,
			})
			return next, nil
		}
		if !IsPlaylistURL(next) || next == current {
			logger.Debug("playlist resolved", logging.Fields{
				"media_url": next,
				"hops":      hop + 1,
			})
			return next, nil
		}
		current = next
	}

	return "", common.NewStreamError(common.SourcePlaylist, playlistURL,
		common.ErrCodeTooManyHops,
		fmt.Sprintf("playlist did not resolve within %d hops", r.cfg.MaxHops), nil)
}

// resolveOnce fetches one playlist document and returns the first media
// reference it names, resolved against the document's final URL.
func (r *Resolver) resolveOnce(ctx context.Context, playlistURL string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, "GET", playlistURL, nil)
	if err != nil {
		return "", common.NewStreamError(common.SourcePlaylist, playlistURL,
			common.ErrCodeConnection, "failed to create playlist request", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", common.NewStreamError(common.SourcePlaylist, playlistURL,
			common.ErrCodeConnection, "failed to fetch playlist", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", common.NewStreamError(common.SourcePlaylist, playlistURL,
			common.ErrCodeConnection,
			fmt.Sprintf("playlist fetch returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err != nil {
		return "", common.NewStreamError(common.SourcePlaylist, playlistURL,
			common.ErrCodeConnection, "failed to read playlist body", err)
	}

	text := string(body)
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	// after redirects Request.URL is the final URL
	base := resp.Request.URL

	if strings.Contains(contentType, "pls") || strings.Contains(text, "[playlist]") {
		if media := parsePLS(text); media != "" {
			return resolveRef(base, media), nil
		}
	}

	return resolveRef(base, parseM3U(text)), nil
}

// parsePLS extracts the File1= entry from PLS syntax.
func parsePLS(text string) string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToLower(line), "file1") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// parseM3U returns the first non-comment entry of M3U/M3U8 syntax,
// preferring absolute http(s) lines, falling back to a nested .m3u8
// reference (possibly relative).
func parseM3U(text string) string {
	var nested string

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return line
		}
		if nested == "" && strings.Contains(lower, ".m3u8") {
			nested = line
		}
	}
	return nested
}

// resolveRef resolves a possibly-relative playlist entry against base.
func resolveRef(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
