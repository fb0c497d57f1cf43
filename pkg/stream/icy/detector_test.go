package icy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFromHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected bool
	}{
		{
			name:     "icy-metaint",
			headers:  map[string]string{"icy-metaint": "16000"},
			expected: true,
		},
		{
			name:     "icy-name without metaint",
			headers:  map[string]string{"icy-name": "Test FM"},
			expected: true,
		},
		{
			name:     "icecast server header",
			headers:  map[string]string{"Server": "Icecast 2.4.4"},
			expected: true,
		},
		{
			name:     "shoutcast server header",
			headers:  map[string]string{"Server": "SHOUTcast/Linux v2.6.0"},
			expected: true,
		},
		{
			name:     "audio content type",
			headers:  map[string]string{"Content-Type": "audio/aacp"},
			expected: true,
		},
		{
			name:     "plain web page",
			headers:  map[string]string{"Content-Type": "text/html", "Server": "nginx"},
			expected: false,
		},
		{
			name:     "no headers",
			headers:  map[string]string{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for key, value := range tt.headers {
				h.Set(key, value)
			}
			assert.Equal(t, tt.expected, DetectFromHeaders(h))
		})
	}
}
