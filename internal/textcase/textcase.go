// Package textcase holds text case helpers
package textcase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capitalize upper-cases the first letter of every whitespace-separated
// word and leaves everything else as it is. Only whitespace ends a word,
// so "hello-world" becomes "Hello-world" and "3rd" stays "3rd".
func Capitalize(s string) string {
	if s == "" {
		return s
	}

	// Casers are stateful, so one is built per call
	title := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder
	b.Grow(len(s))

	wordStart := true
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		chunk := s[i : i+size]

		switch {
		case unicode.IsSpace(r):
			wordStart = true
			b.WriteString(chunk)
		case wordStart:
			wordStart = false
			b.WriteString(title.String(chunk))
			title.Reset()
		default:
			b.WriteString(chunk)
		}
		i += size
	}
	return b.String()
}
