package icy

import (
	"net/http"
	"strings"

	"github.com/RyanBlaney/nowplaying/pkg/stream/common"
)

// DetectFromHeaders reports whether response headers indicate an
// Icecast/Shoutcast stream: an icy-metaint interval, any icy-* header,
// a Server header naming the software, or a raw audio content type.
func DetectFromHeaders(headers http.Header) bool {
	if headers.Get("icy-metaint") != "" {
		return true
	}

	for key := range headers {
		if strings.HasPrefix(strings.ToLower(key), "icy-") {
			return true
		}
	}

	server := strings.ToLower(headers.Get("Server"))
	if strings.Contains(server, "icecast") || strings.Contains(server, "shoutcast") {
		return true
	}

	return common.IsAudioContentType(headers.Get("Content-Type"))
}
