// Package textnorm folds case and splits text into whitespace tokens.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lower-cases s and trims surrounding whitespace.
// A Caser holds state, so one is built per call to keep Normalize safe for concurrent use.
func Normalize(s string) string {
	return strings.TrimSpace(cases.Lower(language.Und).String(s))
}

// Tokenize splits s on runs of whitespace. Empty tokens are never returned.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// NormalizedTokens is Tokenize(Normalize(s)).
func NormalizedTokens(s string) []string {
	return Tokenize(Normalize(s))
}
