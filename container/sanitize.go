package container

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Everything a renderer emits is untrusted, including its stderr. A
// hostile document could make the renderer print escape sequences that
// reprogram the user's terminal, so all renderer text is filtered
// before it may be displayed.

// SanitizeText replaces every rune that is not graphic (Unicode
// categories C*, Zl and Zp, plus unassigned code points) with U+FFFD.
func SanitizeText(untrusted string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsGraphic(r) {
			return r
		}
		return utf8.RuneError
	}, untrusted)
}

// SanitizeLog prepares captured renderer stderr for a debug log. Bytes
// outside ASCII are replaced rather than decoded, then control
// characters are filtered as in SanitizeText, keeping newlines so the
// log stays multi-line.
func SanitizeLog(untrusted []byte) string {
	var b strings.Builder
	b.Grow(len(untrusted))
	for _, c := range untrusted {
		switch {
		case c == '\n':
			b.WriteByte(c)
		case c < utf8.RuneSelf && unicode.IsGraphic(rune(c)):
			b.WriteByte(c)
		default:
			b.WriteRune(utf8.RuneError)
		}
	}
	return b.String()
}
