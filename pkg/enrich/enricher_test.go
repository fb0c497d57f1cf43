package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSearcher plays back canned results and records queries.
type stubSearcher struct {
	results []Recording
	err     error
	queries []string
}

func (s *stubSearcher) SearchRecordings(ctx context.Context, title, artist string) ([]Recording, error) {
	s.queries = append(s.queries, artist+"|"+title)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestEnrichHighConfidence(t *testing.T) {
	search := &stubSearcher{results: []Recording{{
		ID:          "mbid-123",
		Title:       "Anyone",
		Artist:      "Snow Tha Product",
		Release:     "VIBEHIGHER",
		ReleaseDate: "2018-12-07",
		Duration:    187000,
		Score:       95,
	}}}

	enricher := NewEnricherWithSearcher(search)
	meta := enricher.Enrich(context.Background(), "Snow Tha Product - Anyone")
	require.NotNil(t, meta)

	assert.Equal(t, ConfidenceHigh, meta.Confidence)
	assert.Equal(t, SourceMusicBrainz, meta.Source)
	assert.Equal(t, "Snow Tha Product", meta.Artist)
	assert.Equal(t, "Anyone", meta.Title)
	assert.Equal(t, "VIBEHIGHER", meta.Album)
	assert.Equal(t, "2018-12-07", meta.ReleaseDate)
	assert.Equal(t, 187000, meta.Duration)
	assert.Equal(t, "mbid-123", meta.ExternalID)
}

func TestEnrichMediumConfidence(t *testing.T) {
	search := &stubSearcher{results: []Recording{{
		Title: "Anyone", Artist: "Snow Tha Product", Release: "Album", Score: 75,
	}}}

	meta := NewEnricherWithSearcher(search).Enrich(context.Background(), "snow tha product - anyone")
	assert.Equal(t, ConfidenceMedium, meta.Confidence)
	assert.Equal(t, "Album", meta.Album)
}

func TestEnrichLowConfidenceDropsReleaseFields(t *testing.T) {
	search := &stubSearcher{results: []Recording{{
		ID: "mbid-999", Title: "Something Else", Artist: "Somebody", Release: "Wrong Album", Score: 40,
	}}}

	meta := NewEnricherWithSearcher(search).Enrich(context.Background(), "Artist - Title")
	assert.Equal(t, ConfidenceLow, meta.Confidence)
	assert.Equal(t, SourceMusicBrainz, meta.Source)
	assert.Equal(t, "Somebody", meta.Artist)
	assert.Empty(t, meta.Album)
	assert.Empty(t, meta.ExternalID)
	assert.Zero(t, meta.Duration)
}

func TestEnrichZeroCandidatesKeepsRawPair(t *testing.T) {
	search := &stubSearcher{results: []Recording{}}

	meta := NewEnricherWithSearcher(search).Enrich(context.Background(), "Obscure Artist - Unknown Song")
	assert.Equal(t, ConfidenceNone, meta.Confidence)
	assert.Equal(t, SourceRaw, meta.Source)
	assert.Equal(t, "Obscure Artist", meta.Artist)
	assert.Equal(t, "Unknown Song", meta.Title)
}

func TestEnrichServiceErrorDegradesSilently(t *testing.T) {
	search := &stubSearcher{err: errors.New("rate limited")}

	meta := NewEnricherWithSearcher(search).Enrich(context.Background(), "Artist - Title")
	require.NotNil(t, meta)
	assert.Equal(t, ConfidenceLow, meta.Confidence)
	assert.Equal(t, SourceRaw, meta.Source)
	assert.Equal(t, "Artist", meta.Artist)
	assert.Equal(t, "Title", meta.Title)
}

func TestEnrichEmptyInput(t *testing.T) {
	search := &stubSearcher{}

	meta := NewEnricherWithSearcher(search).Enrich(context.Background(), "   ")
	assert.Equal(t, ConfidenceNone, meta.Confidence)
	assert.Empty(t, search.queries, "empty input must not hit the service")
}

func TestEnrichBatchOrderMatchesInput(t *testing.T) {
	search := &stubSearcher{results: []Recording{{Title: "Hit", Artist: "Someone", Score: 92}}}

	enricher := NewEnricherWithSearcher(search)
	results := enricher.EnrichBatch(context.Background(), []string{
		"A - One",
		"B - Two",
	})

	require.Len(t, results, 2)
	assert.Equal(t, []string{"A|One", "B|Two"}, search.queries)
}

func TestEnrichBatchCanceledContextFillsRemainder(t *testing.T) {
	search := &stubSearcher{results: []Recording{{Title: "Hit", Artist: "Someone", Score: 92}}}
	enricher := NewEnricherWithSearcher(search)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := enricher.EnrichBatch(ctx, []string{"A - One", "B - Two", "C - Three"})
	require.Len(t, results, 3)

	// Items after the cancellation point degrade to raw pairs.
	assert.Equal(t, SourceRaw, results[1].Source)
	assert.Equal(t, "B", results[1].Artist)
	assert.Equal(t, SourceRaw, results[2].Source)
}

func TestScoreConfidence(t *testing.T) {
	tests := []struct {
		score    int
		expected Confidence
	}{
		{100, ConfidenceHigh},
		{90, ConfidenceHigh},
		{89, ConfidenceMedium},
		{70, ConfidenceMedium},
		{69, ConfidenceLow},
		{0, ConfidenceLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, scoreConfidence(tt.score), "score: %d", tt.score)
	}
}

func TestSplitRawTitle(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		expectedArtist string
		expectedTitle  string
	}{
		{"dash separator", "Snow Tha Product - Anyone", "Snow Tha Product", "Anyone"},
		{"by separator", "Anyone by Snow Tha Product", "Snow Tha Product", "Anyone"},
		{"by separator mixed case", "Anyone BY Snow Tha Product", "Snow Tha Product", "Anyone"},
		{"colon separator", "Snow Tha Product: Anyone", "Snow Tha Product", "Anyone"},
		{"dash wins over by", "Artist - Song by Someone", "Artist", "Song by Someone"},
		{"no separator", "Morning News", "", "Morning News"},
		{"quoted", "'Artist - Song'", "Artist", "Song"},
		{"empty", "", "", ""},
		{"whitespace only", "   ", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := SplitRawTitle(tt.input)
			assert.Equal(t, tt.expectedArtist, artist)
			assert.Equal(t, tt.expectedTitle, title)
		})
	}
}
