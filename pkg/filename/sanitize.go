// Package filename derives safe display names for PDF documents from
// untrusted input: client-supplied upload names, Content-Disposition headers,
// and remote URLs. Every exported function returns a name that has passed
// through Sanitize.
package filename

import (
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxLength is the maximum name length in bytes, matching the
	// common filesystem limit for a single path component.
	DefaultMaxLength = 255

	// DefaultFallback is returned when no usable name can be derived.
	DefaultFallback = "downloaded.pdf"

	// Extension is the extension forced onto every sanitized name.
	Extension = ".pdf"

	minLength    = len("a.pdf")
	illegalChars = `<>:"/\|?*`
)

// Sanitize reduces candidate to a filename that is safe to display, log, and
// use as a path component. It never fails: when no usable name can be
// derived, fallback is returned unchanged. A maxLength of zero or less
// selects DefaultMaxLength.
//
// The result, when not the fallback, ends in ".pdf" (case preserved if the
// candidate already had that extension), contains no ASCII control
// characters or any of < > : " / \ | ? *, and is at most maxLength bytes.
// Sanitize is idempotent for any fallback that is itself a sanitized name.
func Sanitize(candidate, fallback string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	if isTraversal(candidate) {
		return fallback
	}

	name := lastSegment(candidate)
	name = norm.NFC.String(name)
	name = strings.Map(stripRune, name)
	// a stripped control rune may have blocked composition
	name = norm.NFC.String(name)

	// removing characters can splice a new ".." together
	if strings.Contains(name, "..") {
		return fallback
	}

	name = strings.Trim(name, " .")
	if name == "" {
		return fallback
	}

	name, ok := forceExtension(name)
	if !ok {
		return fallback
	}

	name, ok = truncate(name, maxLength)
	if !ok {
		return fallback
	}

	if utf8.RuneCountInString(name) < minLength {
		return fallback
	}

	return name
}

// HasExtension reports whether name ends in ".pdf", ignoring case.
func HasExtension(name string) bool {
	return strings.EqualFold(path.Ext(name), Extension)
}

func isTraversal(candidate string) bool {
	return candidate == "" ||
		strings.Contains(candidate, "..") ||
		strings.HasPrefix(candidate, "/") ||
		strings.HasPrefix(candidate, `\`)
}

func lastSegment(s string) string {
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		return s[i+1:]
	}
	return s
}

// stripRune drops ASCII control characters and characters that are illegal
// in Windows or Unix filenames. Zero-width and other non-ASCII format
// characters are kept.
func stripRune(r rune) rune {
	if r <= 0x1F || r == 0x7F {
		return -1
	}
	if strings.ContainsRune(illegalChars, r) {
		return -1
	}
	return r
}

func forceExtension(name string) (string, bool) {
	ext := path.Ext(name)
	if strings.EqualFold(ext, Extension) {
		return name, true
	}

	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		return "", false
	}
	return stem + Extension, true
}

// truncate shortens the stem on a rune boundary so the whole name fits in
// maxLength bytes. The extension is never cut.
func truncate(name string, maxLength int) (string, bool) {
	if len(name) <= maxLength {
		return name, true
	}

	ext := name[len(name)-len(Extension):]
	stem := name[:len(name)-len(ext)]

	budget := maxLength - len(ext)
	if budget <= 0 {
		return "", false
	}

	for len(stem) > budget {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
	}

	stem = strings.TrimRight(stem, " .")
	if stem == "" {
		return "", false
	}

	return stem + ext, true
}
