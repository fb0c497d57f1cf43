package common

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultUserAgent is sent on every outbound request unless overridden.
const DefaultUserAgent = "nowplaying-probe/1.0"

// ValidateURL parses rawURL and confirms it is an absolute http(s) URL.
// This is the only caller-visible error in the extraction path.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewStreamError(SourceUnknown, rawURL,
			ErrCodeInvalidURL, "malformed stream URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, NewStreamError(SourceUnknown, rawURL,
			ErrCodeInvalidURL, "unsupported URL scheme: "+u.Scheme, nil)
	}
	if u.Host == "" {
		return nil, NewStreamError(SourceUnknown, rawURL,
			ErrCodeInvalidURL, "stream URL has no host", nil)
	}
	return u, nil
}

// HeaderFirst returns the first non-empty value among the named headers.
// Shoutcast-era servers use ice-* and x-audiocast-* synonyms for icy-*.
func HeaderFirst(h http.Header, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(h.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// HeadersToMap flattens response headers into a lowercase key map,
// keeping the first value of each.
func HeadersToMap(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			m[strings.ToLower(key)] = values[0]
		}
	}
	return m
}

// IsAudioContentType reports whether the content type looks like a raw
// audio stream (the ICY family serves audio/mpeg, audio/aac, audio/aacp).
func IsAudioContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return strings.HasPrefix(ct, "audio/") || ct == "application/ogg"
}
