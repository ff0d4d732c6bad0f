package index

import (
	"net/url"
	"strings"
)

// NormalizeURL trims raw, escapes spaces, and defaults the scheme to http.
// It reports false for empty input and for anything that does not parse as
// an absolute URL with a host.
func NormalizeURL(raw string) (string, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "%20")
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	if s == "http://" {
		return "", false
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return s, true
}

// URLFor returns the normalized URL of the index of repository name under
// baseURL, or "" when baseURL is empty or invalid.
func URLFor(baseURL, name string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return ""
	}
	u, ok := NormalizeURL(base + "/" + url.PathEscape(name) + "/" + "index.bsi")
	if !ok {
		return ""
	}
	return u
}
