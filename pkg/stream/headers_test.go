package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
)

func TestProbeHeadersStationFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "HEAD", r.Method)
		w.Header().Set("icy-name", "Test FM")
		w.Header().Set("icy-genre", "Jazz")
		w.Header().Set("icy-br", "96")
		w.Header().Set("icy-description", "Smooth jazz all day")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result, err := ProbeHeaders(context.Background(), server.Client(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, common.SourceHeaders, result.Source)
	assert.Equal(t, "Test FM", result.Station)
	assert.Equal(t, "Jazz", result.Genre)
	assert.Equal(t, 96, result.Bitrate)
	assert.Equal(t, "Smooth jazz all day", result.Raw["description"])
	assert.Empty(t, result.Title)
}

func TestProbeHeadersLegacySynonyms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-audiocast-name", "Legacy Cast")
		w.Header().Set("ice-genre", "Talk")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result, err := ProbeHeaders(context.Background(), server.Client(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Legacy Cast", result.Station)
	assert.Equal(t, "Talk", result.Genre)
}

func TestProbeHeadersCurrentSongHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("icy-name", "Test FM")
		w.Header().Set("icy-title", "Miles Davis - So What")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result, err := ProbeHeaders(context.Background(), server.Client(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Miles Davis", result.Artist)
	assert.Equal(t, "So What", result.Title)
}

func TestProbeHeadersNoMetadataDeclines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result, err := ProbeHeaders(context.Background(), server.Client(), server.URL)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestProbeHeadersHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := ProbeHeaders(context.Background(), server.Client(), server.URL)
	assert.Error(t, err)
}
