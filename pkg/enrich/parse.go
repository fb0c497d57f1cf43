package enrich

import "strings"

// SplitRawTitle breaks a combined now-playing string into an (artist, title)
// guess. Recognized shapes, in priority order:
//
//	"Artist - Title"
//	"Title by Artist"
//	"Artist: Title"
//
// Anything unmatched becomes title-only.
func SplitRawTitle(raw string) (artist, title string) {
	s := strings.Trim(strings.TrimSpace(raw), "'")
	if s == "" {
		return "", ""
	}

	if left, right, ok := splitOnce(s, " - "); ok {
		return left, right
	}
	if left, right, ok := splitOnceFold(s, " by "); ok {
		return right, left
	}
	if left, right, ok := splitOnce(s, ": "); ok {
		return left, right
	}

	return "", s
}

func splitOnce(s, sep string) (left, right string, ok bool) {
	idx := strings.Index(s, sep)
	if idx <= 0 || idx+len(sep) >= len(s) {
		return "", "", false
	}
	left = strings.TrimSpace(s[:idx])
	right = strings.TrimSpace(s[idx+len(sep):])
	return left, right, left != "" && right != ""
}

func splitOnceFold(s, sep string) (left, right string, ok bool) {
	idx := strings.Index(strings.ToLower(s), sep)
	if idx <= 0 || idx+len(sep) >= len(s) {
		return "", "", false
	}
	left = strings.TrimSpace(s[:idx])
	right = strings.TrimSpace(s[idx+len(sep):])
	return left, right, left != "" && right != ""
}
