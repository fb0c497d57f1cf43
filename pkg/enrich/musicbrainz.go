package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

const (
	// DefaultMusicBrainzURL is the public MusicBrainz web service root.
	DefaultMusicBrainzURL = "https://musicbrainz.org/ws/2"

	defaultSearchLimit = 10
)

// Recording is one ranked candidate returned by a recording search.
// Score is the service-assigned match score on a 0-100 scale.
type Recording struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Release     string `json:"release,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	Duration    int    `json:"duration,omitempty"` // milliseconds
	Score       int    `json:"score"`
}

// MusicBrainzClient searches the MusicBrainz recording index with fuzzy
// matching. It implements Searcher.
type MusicBrainzClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewMusicBrainzClient creates a client against the public MusicBrainz API.
func NewMusicBrainzClient() *MusicBrainzClient {
	return NewMusicBrainzClientWithURL(DefaultMusicBrainzURL)
}

// NewMusicBrainzClientWithURL creates a client against a custom API root,
// used by tests and self-hosted mirrors.
func NewMusicBrainzClientWithURL(baseURL string) *MusicBrainzClient {
	return &MusicBrainzClient{
		baseURL:   baseURL,
		userAgent: "nowplaying-probe/1.0 (https://github.com/RyanBlaney/nowplaying)",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SearchRecordings queries /recording with fuzzy terms for title and,
// when present, artist. Results come back in the service's rank order.
func (c *MusicBrainzClient) SearchRecordings(ctx context.Context, title, artist string) ([]Recording, error) {
	if title == "" && artist == "" {
		return nil, fmt.Errorf("recording search requires a title or artist")
	}

	query := ""
	if title != "" {
		query = fmt.Sprintf("recording:%s~2", title)
	}
	if artist != "" {
		if query != "" {
			query += " AND "
		}
		query += fmt.Sprintf("artist:%s~2", artist)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(defaultSearchLimit))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/recording?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	logging.Debug("MusicBrainz recording search", logging.Fields{
		"title":  title,
		"artist": artist,
	})

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recording search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("MusicBrainz API error: %d %s", resp.StatusCode, resp.Status)
	}

	var body struct {
		Recordings []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			Score        int    `json:"score"`
			Length       int    `json:"length"`
			ArtistCredit []struct {
				Name string `json:"name"`
			} `json:"artist-credit"`
			Releases []struct {
				Title string `json:"title"`
				Date  string `json:"date"`
			} `json:"releases"`
		} `json:"recordings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	recordings := make([]Recording, 0, len(body.Recordings))
	for _, rec := range body.Recordings {
		r := Recording{
			ID:       rec.ID,
			Title:    rec.Title,
			Score:    rec.Score,
			Duration: rec.Length,
		}
		if len(rec.ArtistCredit) > 0 {
			r.Artist = rec.ArtistCredit[0].Name
		}
		if len(rec.Releases) > 0 {
			r.Release = rec.Releases[0].Title
			r.ReleaseDate = rec.Releases[0].Date
		}
		recordings = append(recordings, r)
	}

	return recordings, nil
}
