package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRecordings(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recording", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		gotQuery = r.URL.Query().Get("query")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"recordings": [
				{
					"id": "mbid-1",
					"title": "Anyone",
					"score": 95,
					"length": 187000,
					"artist-credit": [{"name": "Snow Tha Product"}],
					"releases": [{"title": "VIBEHIGHER", "date": "2018-12-07"}]
				},
				{
					"id": "mbid-2",
					"title": "Anyone Else",
					"score": 60,
					"artist-credit": [{"name": "Somebody"}]
				}
			]
		}`)
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithURL(server.URL)
	results, err := client.SearchRecordings(context.Background(), "Anyone", "Snow Tha Product")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "recording:Anyone~2 AND artist:Snow Tha Product~2", gotQuery)

	assert.Equal(t, "mbid-1", results[0].ID)
	assert.Equal(t, "Anyone", results[0].Title)
	assert.Equal(t, "Snow Tha Product", results[0].Artist)
	assert.Equal(t, "VIBEHIGHER", results[0].Release)
	assert.Equal(t, "2018-12-07", results[0].ReleaseDate)
	assert.Equal(t, 187000, results[0].Duration)
	assert.Equal(t, 95, results[0].Score)

	assert.Empty(t, results[1].Release)
}

func TestSearchRecordingsTitleOnly(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, `{"recordings": []}`)
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithURL(server.URL)
	results, err := client.SearchRecordings(context.Background(), "Anyone", "")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "recording:Anyone~2", gotQuery)
}

func TestSearchRecordingsRequiresInput(t *testing.T) {
	client := NewMusicBrainzClientWithURL("http://localhost:1")
	_, err := client.SearchRecordings(context.Background(), "", "")
	assert.Error(t, err)
}

func TestSearchRecordingsServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewMusicBrainzClientWithURL(server.URL)
	_, err := client.SearchRecordings(context.Background(), "Anyone", "")
	assert.Error(t, err)
}
