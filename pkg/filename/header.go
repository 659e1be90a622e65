package filename

import (
	"fmt"
	"strings"
)

// ContentDisposition formats a Content-Disposition header value carrying
// name both as a quoted ASCII filename and as an RFC 5987 UTF-8 filename*.
// name is expected to be the output of Sanitize.
func ContentDisposition(dispositionType, name string) string {
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`,
		dispositionType, asciiFallback(name), encodeExtended(name))
}

func asciiFallback(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}

// encodeExtended percent-encodes every byte outside the RFC 5987 attr-char set.
func encodeExtended(name string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
