// Package normalize canonicalises free-text car fields before they are sent to
// the cars API, so that "toYOTA", "TOYOTA " and "toyota" all collapse to the
// same filter value.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Text trims the input, lowercases it and upper-cases the first rune of every
// space-separated word. Runs of spaces inside the value are kept as they are.
//
//	Text("toYOTA")       → "Toyota"
//	Text("civic type r") → "Civic Type R"
func Text(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	words := strings.Split(s, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// UpperCase trims and upper-cases the input. Used for VINs.
func UpperCase(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
