package shared

import (
	"regexp"
	"strings"
)

// trackPatterns are tried in order; the first match wins.
var trackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://[^\s/]+(?:/[^\s/]+)*?/track/([A-Za-z0-9]+)`),
	regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*:track:([A-Za-z0-9]+)`),
	regexp.MustCompile(`track/([A-Za-z0-9]+)`),
}

// ParseTrackID extracts a track identifier from free text.
//
// Accepted shapes, in priority order:
//   - https://open.spotify.com/track/<id> (any host, any path prefix, query string ignored)
//   - spotify:track:<id> (any scheme)
//   - track/<id>
//
// The second return value is false when no shape matches.
func ParseTrackID(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	for _, re := range trackPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// LooksLikeURL reports whether text contains some kind of web link.
func LooksLikeURL(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "http://") || strings.Contains(lower, "https://") || strings.Contains(lower, "www.")
}
