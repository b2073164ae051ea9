package twiml

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sanitize prepares caller-facing text for a <Say> element: NFKC
// normalization, control characters removed (tab and newline kept until
// whitespace is collapsed), runs of whitespace collapsed to one space.
// Markup escaping happens in the XML encoder. An empty result yields
// fallback.
func Sanitize(text, fallback string) string {
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		b.WriteRune(r)
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return fallback
	}
	return out
}
