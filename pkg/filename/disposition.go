package filename

import (
	"mime"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	extendedPattern = regexp.MustCompile(`(?i)filename\*\s*=\s*([^']*)'[^']*'([^;\s]+)`)
	plainPattern    = regexp.MustCompile(`(?i)filename\s*=\s*(?:"([^"]*)"|([^;\s]+))`)
)

// ParseContentDisposition extracts a filename from a Content-Disposition
// header value (RFC 6266). The extended filename* form (RFC 5987/2231) is
// preferred over the plain filename form when both are present.
//
// Parsing is attempted structurally first. Only when the header cannot be
// parsed, or carries no filename parameter, are pattern scans used. The
// result is always passed through Sanitize; when nothing usable is found the
// sanitized fallback is returned. An empty fallback selects DefaultFallback.
func ParseContentDisposition(header, fallback string) string {
	safeFallback := sanitizeFallback(fallback)

	name, ok := parseStructured(header)
	if !ok {
		name, ok = parsePattern(header)
	}
	if !ok {
		return safeFallback
	}

	return Sanitize(name, safeFallback, DefaultMaxLength)
}

// parseStructured uses the mime package, which implements RFC 2231
// parameter decoding and resolves filename* over filename. The mime package
// only decodes UTF-8 and US-ASCII extended values and otherwise keeps the
// plain filename, so any other charset is decoded here.
func parseStructured(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", false
	}

	if m := extendedPattern.FindStringSubmatch(header); m != nil && !mimeDecodes(m[1]) {
		if name := decodeExtended(m[1], m[2]); name != "" {
			return name, true
		}
	}

	name := params["filename"]
	return name, name != ""
}

func mimeDecodes(charset string) bool {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "utf-8", "us-ascii":
		return true
	}
	return false
}

// parsePattern scans a malformed header for filename*=charset'lang'value
// first, then for filename="value" or filename=value.
func parsePattern(header string) (string, bool) {
	if m := extendedPattern.FindStringSubmatch(header); m != nil {
		if name := decodeExtended(m[1], m[2]); name != "" {
			return name, true
		}
	}

	if m := plainPattern.FindStringSubmatch(header); m != nil {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name != "" {
			return name, true
		}
	}

	return "", false
}

func decodeExtended(charset, value string) string {
	charset = strings.ToLower(strings.Trim(strings.TrimSpace(charset), `"`))
	value = strings.Trim(value, `"`)

	raw, err := url.PathUnescape(value)
	if err != nil {
		raw = value
	}

	switch charset {
	case "iso-8859-1", "latin1", "latin-1":
		decoded, err := charmap.ISO8859_1.NewDecoder().String(raw)
		if err != nil {
			return ""
		}
		return decoded
	default:
		return strings.ToValidUTF8(raw, string(utf8.RuneError))
	}
}

func sanitizeFallback(fallback string) string {
	if fallback == "" {
		return DefaultFallback
	}
	return Sanitize(fallback, DefaultFallback, DefaultMaxLength)
}
