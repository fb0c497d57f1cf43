package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
	"github.com/RyanBlaney/nowplaying/pkg/stream/icy"
)

const (
	statusEndpointTimeout = 5 * time.Second

	maxStatusBodyBytes = 1024 * 1024
)

// statusEndpointPaths are the conventional origin-relative status pages
// exposed by Icecast and Shoutcast servers, tried in order.
var statusEndpointPaths = []string{
	"/status-json.xsl",
	"/stats",
	"/status.xsl?mount=%s",
	"/json.xsl",
}

// ProbeStatusEndpoints tries the well-known Icecast/Shoutcast status
// pages on the stream's origin. Each endpoint gets its own short timeout;
// per-endpoint failures move on to the next path.
func ProbeStatusEndpoints(ctx context.Context, client *http.Client, streamURL string) (*common.NowPlaying, error) {
	return ProbeStatusEndpointsWithConfig(ctx, client, streamURL, DefaultConfig())
}

// ProbeStatusEndpointsWithConfig is ProbeStatusEndpoints with explicit
// per-endpoint bounds.
func ProbeStatusEndpointsWithConfig(ctx context.Context, client *http.Client, streamURL string, cfg Config) (*common.NowPlaying, error) {
	cfg = cfg.withDefaults()

	u, err := common.ValidateURL(streamURL)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "statusjson_probe",
		"url":       streamURL,
	})

	origin := u.Scheme + "://" + u.Host
	mountpoint := u.Path

	for _, path := range statusEndpointPaths {
		endpoint := origin + path
		if strings.Contains(path, "%s") {
			endpoint = origin + fmt.Sprintf(path, url.QueryEscape(mountpoint))
		}

		result, err := fetchStatusEndpoint(ctx, client, endpoint, mountpoint, cfg)
		if err != nil {
			logger.Debug("status endpoint failed", logging.Fields{
				"endpoint": endpoint,
				"error":    err.Error(),
			})
			continue
		}
		if result.HasMetadata() {
			result.URL = streamURL
			result.SetRaw("status_endpoint", endpoint)
			logger.Debug("status endpoint matched", logging.Fields{
				"endpoint": endpoint,
			})
			return result, nil
		}
	}

	return nil, nil
}

func fetchStatusEndpoint(ctx context.Context, client *http.Client, endpoint, mountpoint string, cfg Config) (*common.NowPlaying, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.StatusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBodyBytes))
	if err != nil {
		return nil, err
	}

	return parseStatusJSON(body, mountpoint)
}

// flexInt tolerates numeric fields arriving as either JSON numbers or
// quoted strings; server versions disagree on which.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// icecastSource is one mountpoint entry in the Icecast 2.4+ status shape.
type icecastSource struct {
	Title             string  `json:"title"`
	ServerName        string  `json:"server_name"`
	ServerDescription string  `json:"server_description"`
	Genre             string  `json:"genre"`
	Bitrate           flexInt `json:"bitrate"`
	Listeners         flexInt `json:"listeners"`
	ListenURL         string  `json:"listenurl"`
}

// parseStatusJSON accepts the Icecast 2.4+ shape (icestats.source, either
// a single object or an array matched by mountpoint) and the legacy flat
// Shoutcast DNAS shape (songtitle/servertitle).
func parseStatusJSON(body []byte, mountpoint string) (*common.NowPlaying, error) {
	var icecast struct {
		Icestats struct {
			Source json.RawMessage `json:"source"`
		} `json:"icestats"`
	}
	if err := json.Unmarshal(body, &icecast); err == nil && len(icecast.Icestats.Source) > 0 {
		if result, err := parseIcecastSources(icecast.Icestats.Source, mountpoint); err == nil {
			return result, nil
		}
	}

	var shoutcast struct {
		SongTitle        string  `json:"songtitle"`
		ServerTitle      string  `json:"servertitle"`
		ServerGenre      string  `json:"servergenre"`
		Bitrate          flexInt `json:"bitrate"`
		CurrentListeners flexInt `json:"currentlisteners"`
	}
	if err := json.Unmarshal(body, &shoutcast); err != nil {
		return nil, common.NewStreamError(common.SourceJSON, "",
			common.ErrCodeParse, "unparseable status JSON", err)
	}
	if shoutcast.SongTitle == "" && shoutcast.ServerTitle == "" {
		return nil, common.NewStreamError(common.SourceJSON, "",
			common.ErrCodeParse, "status JSON has no recognizable shape", nil)
	}

	result := &common.NowPlaying{
		Source:    common.SourceJSON,
		Station:   shoutcast.ServerTitle,
		Genre:     shoutcast.ServerGenre,
		Timestamp: time.Now(),
	}
	applyTitle(result, shoutcast.SongTitle)
	result.Bitrate = int(shoutcast.Bitrate)
	result.Listeners = int(shoutcast.CurrentListeners)
	result.SetRaw("songtitle", shoutcast.SongTitle)
	result.SetRaw("servertitle", shoutcast.ServerTitle)
	return result, nil
}

// parseIcecastSources picks the source whose listenurl matches the
// requested mountpoint, falling back to the first source.
func parseIcecastSources(raw json.RawMessage, mountpoint string) (*common.NowPlaying, error) {
	var sources []icecastSource

	var many []icecastSource
	if err := json.Unmarshal(raw, &many); err == nil {
		sources = many
	} else {
		var one icecastSource
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		sources = []icecastSource{one}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("icestats has no sources")
	}

	selected := sources[0]
	if mountpoint != "" && mountpoint != "/" {
		for _, src := range sources {
			if strings.Contains(src.ListenURL, mountpoint) {
				selected = src
				break
			}
		}
	}

	result := &common.NowPlaying{
		Source:    common.SourceJSON,
		Station:   selected.ServerName,
		Genre:     selected.Genre,
		Timestamp: time.Now(),
	}
	applyTitle(result, selected.Title)
	result.Bitrate = int(selected.Bitrate)
	result.Listeners = int(selected.Listeners)
	result.SetRaw("title", selected.Title)
	result.SetRaw("server_name", selected.ServerName)
	result.SetRaw("server_description", selected.ServerDescription)
	result.SetRaw("listenurl", selected.ListenURL)

	if !result.HasMetadata() {
		return nil, fmt.Errorf("matched source carries no metadata")
	}
	return result, nil
}

// applyTitle stores a combined title and, when it splits cleanly on the
// ICY convention, the artist/title pair.
func applyTitle(result *common.NowPlaying, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	artist, song := icy.ParseStreamTitle(title)
	if artist != "" {
		result.Artist = artist
		result.Title = song
	} else {
		result.Title = title
	}
}

