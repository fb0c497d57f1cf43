package common

import (
	"time"

	"github.com/RyanBlaney/nowplaying/pkg/enrich"
)

// Source identifies which wire protocol or fallback strategy produced a result
type Source string

const (
	SourceICY      Source = "ICY"
	SourceHLSID3   Source = "HLS_ID3"
	SourcePlaylist Source = "PLAYLIST"
	SourceJSON     Source = "JSON"
	SourceHeaders  Source = "HEADERS"
	SourceStream   Source = "STREAM"
	SourceUnknown  Source = "UNKNOWN"
)

// NowPlaying is the result of a single probe of a stream URL.
//
// Source is always set. Artist and Title are only populated when they were
// parsed from a concrete protocol field (StreamTitle, TIT2/TPE1, songtitle),
// never guessed. Raw retains the protocol-level key/value pairs the result
// was derived from. A nil *NowPlaying means "never probed"; use NoMetadata
// for "probed, found nothing".
type NowPlaying struct {
	URL       string            `json:"url"`
	Source    Source            `json:"source"`
	Station   string            `json:"station,omitempty"`
	Artist    string            `json:"artist,omitempty"`
	Title     string            `json:"title,omitempty"`
	Genre     string            `json:"genre,omitempty"`
	Bitrate   int               `json:"bitrate,omitempty"`
	Listeners int               `json:"listeners,omitempty"`
	Raw       map[string]string `json:"raw,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Enriched  *enrich.Metadata  `json:"enriched,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NoMetadataNote marks the explicit terminal value returned when every
// extraction strategy was exhausted without finding anything.
const NoMetadataNote = "no metadata available"

// NoMetadata returns the terminal "checked, found nothing" result for url.
func NoMetadata(url string) *NowPlaying {
	return &NowPlaying{
		URL:       url,
		Source:    SourceUnknown,
		Notes:     NoMetadataNote,
		Timestamp: time.Now(),
	}
}

// HasMetadata reports whether the probe produced any usable now-playing
// information. The cascade uses this to decide whether to short-circuit.
func (np *NowPlaying) HasMetadata() bool {
	if np == nil {
		return false
	}
	return np.Title != "" || np.Station != ""
}

// Exhausted reports whether this is the terminal "no metadata available"
// value, as opposed to a result that was never produced.
func (np *NowPlaying) Exhausted() bool {
	return np != nil && np.Source == SourceUnknown && np.Notes == NoMetadataNote
}

// DisplayTitle returns a single human-readable "Artist - Title" string,
// falling back to whichever field is present.
func (np *NowPlaying) DisplayTitle() string {
	if np == nil {
		return ""
	}
	if np.Artist != "" && np.Title != "" {
		return np.Artist + " - " + np.Title
	}
	if np.Title != "" {
		return np.Title
	}
	return np.Station
}

// SetRaw stores a protocol-level key/value pair, allocating the map lazily.
func (np *NowPlaying) SetRaw(key, value string) {
	if value == "" {
		return
	}
	if np.Raw == nil {
		np.Raw = make(map[string]string)
	}
	np.Raw[key] = value
}
