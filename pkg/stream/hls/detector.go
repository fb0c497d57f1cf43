package hls

import (
	"net/url"
	"strings"
)

// DetectFromURL matches the URL with common HLS patterns
func DetectFromURL(streamURL string) bool {
	u, err := url.Parse(streamURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)

	return strings.HasSuffix(path, ".m3u8") ||
		strings.Contains(path, "/playlist.m3u8") ||
		strings.Contains(path, "/index.m3u8") ||
		strings.Contains(strings.ToLower(u.RawQuery), "m3u8")
}

// DetectFromContentType matches a response content type with the HLS
// playlist media types.
func DetectFromContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/vnd.apple.mpegurl") ||
		strings.Contains(ct, "application/x-mpegurl") ||
		strings.Contains(ct, "vnd.apple.mpegurl")
}
