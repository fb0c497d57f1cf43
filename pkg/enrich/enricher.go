// Package enrich normalizes raw now-playing strings against a canonical
// music-metadata search service and assigns a coarse confidence tier to
// the match.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"golang.org/x/time/rate"
)

// Confidence is a coarse tier derived from the search service's match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// MetadataSource names where the normalized fields came from.
type MetadataSource string

const (
	SourceMusicBrainz MetadataSource = "musicbrainz"
	SourceRaw         MetadataSource = "raw"
)

// Metadata is a confidence-scored, normalized (artist, title) result.
// Canonical fields (Album, ReleaseDate, Duration, ExternalID) are attached
// only at medium or high confidence.
type Metadata struct {
	Artist      string         `json:"artist"`
	Title       string         `json:"title"`
	Album       string         `json:"album,omitempty"`
	ReleaseDate string         `json:"release_date,omitempty"`
	Duration    int            `json:"duration,omitempty"` // milliseconds
	ExternalID  string         `json:"external_id,omitempty"`
	Confidence  Confidence     `json:"confidence"`
	Source      MetadataSource `json:"source"`
}

// Searcher is the canonical music-metadata search dependency. It must be
// swappable without touching the extraction cascade; MusicBrainzClient is
// the default implementation.
type Searcher interface {
	SearchRecordings(ctx context.Context, title, artist string) ([]Recording, error)
}

// Enricher resolves raw (artist, title) guesses against a Searcher.
type Enricher struct {
	search  Searcher
	limiter *rate.Limiter
}

// NewEnricher creates an enricher backed by the public MusicBrainz API.
func NewEnricher() *Enricher {
	return NewEnricherWithSearcher(NewMusicBrainzClient())
}

// NewEnricherWithSearcher creates an enricher with a custom search backend.
// Batch calls are serialized at one request per second regardless of backend;
// the public MusicBrainz service enforces that limit.
func NewEnricherWithSearcher(search Searcher) *Enricher {
	return &Enricher{
		search:  search,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Enrich normalizes a combined raw string such as
// "Snow Tha Product - Anyone". It never returns an error: a failed or
// empty lookup degrades to the raw pair at low (or none) confidence.
func (e *Enricher) Enrich(ctx context.Context, raw string) *Metadata {
	artist, title := SplitRawTitle(raw)
	return e.EnrichPair(ctx, artist, title)
}

// EnrichPair enriches an already-split (artist, title) guess.
func (e *Enricher) EnrichPair(ctx context.Context, artist, title string) *Metadata {
	logger := logging.WithFields(logging.Fields{
		"component": "enricher",
		"artist":    artist,
		"title":     title,
	})

	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)

	if title == "" && artist == "" {
		return &Metadata{
			Confidence: ConfidenceNone,
			Source:     SourceRaw,
		}
	}

	results, err := e.search.SearchRecordings(ctx, title, artist)
	if err != nil {
		logger.Warn("canonical search failed, keeping raw pair", logging.Fields{
			"error": err.Error(),
		})
		return &Metadata{
			Artist:     artist,
			Title:      title,
			Confidence: ConfidenceLow,
			Source:     SourceRaw,
		}
	}

	if len(results) == 0 {
		logger.Debug("no candidates for raw pair")
		return &Metadata{
			Artist:     artist,
			Title:      title,
			Confidence: ConfidenceNone,
			Source:     SourceRaw,
		}
	}

	best := results[0]
	confidence := scoreConfidence(best.Score)

	logger.Debug("canonical match found", logging.Fields{
		"match_artist": best.Artist,
		"match_title":  best.Title,
		"score":        best.Score,
		"confidence":   string(confidence),
	})

	meta := &Metadata{
		Artist:     best.Artist,
		Title:      best.Title,
		Confidence: confidence,
		Source:     SourceMusicBrainz,
	}

	// Low-confidence matches keep the canonical name pair but not the
	// release-level fields, which are likely to belong to the wrong song.
	if confidence == ConfidenceHigh || confidence == ConfidenceMedium {
		meta.Album = best.Release
		meta.ReleaseDate = best.ReleaseDate
		meta.Duration = best.Duration
		meta.ExternalID = best.ID
	}

	return meta
}

// EnrichBatch enriches items strictly sequentially, waiting out the rate
// limiter between calls. Order of results matches order of inputs.
func (e *Enricher) EnrichBatch(ctx context.Context, items []string) []*Metadata {
	results := make([]*Metadata, 0, len(items))

	for i, item := range items {
		if i > 0 {
			if err := e.limiter.Wait(ctx); err != nil {
				// Context canceled mid-batch; fill the remainder with
				// raw-only values so callers get a result per input.
				for ; i < len(items); i++ {
					artist, title := SplitRawTitle(items[i])
					results = append(results, &Metadata{
						Artist:     artist,
						Title:      title,
						Confidence: ConfidenceLow,
						Source:     SourceRaw,
					})
				}
				return results
			}
		}
		results = append(results, e.Enrich(ctx, item))
	}

	return results
}

func scoreConfidence(score int) Confidence {
	switch {
	case score >= 90:
		return ConfidenceHigh
	case score >= 70:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
