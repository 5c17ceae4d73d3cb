// Package textnorm folds free text for status comparison and list filtering.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritics ("reparación" -> "reparacion").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Status normalizes an order status: diacritics stripped, upper case,
// inner whitespace runs collapsed and the ends trimmed.
func Status(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(Fold(s))), " ")
}

func key(s string) string {
	return strings.TrimSpace(strings.ToLower(Fold(s)))
}

// Match reports whether every word of query appears in text, ignoring case
// and diacritics. An empty query matches everything.
func Match(text, query string) bool {
	q := key(query)
	if q == "" {
		return true
	}
	t := key(text)
	for _, part := range strings.Fields(q) {
		if !strings.Contains(t, part) {
			return false
		}
	}
	return true
}
