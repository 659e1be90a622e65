package filename

import (
	"net/url"
	"strings"
)

// FromURL derives a filename from the last non-empty path segment of
// rawURL. The segment is only used when it already ends in ".pdf"
// (ignoring case); otherwise the sanitized fallback is returned without
// further guessing. An empty fallback selects DefaultFallback.
func FromURL(rawURL, fallback string) string {
	safeFallback := sanitizeFallback(fallback)

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return safeFallback
	}

	p := strings.TrimRight(u.Path, "/")
	segment := p[strings.LastIndex(p, "/")+1:]

	if segment == "" || !HasExtension(segment) {
		return safeFallback
	}

	return Sanitize(segment, safeFallback, DefaultMaxLength)
}
