package fuzzy

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/poiesic/ledgermatch/textnorm"
)

// LevenshteinRatio returns 1 - d/max(len(a), len(b)) where d is the Levenshtein
// distance of the normalized strings. Substitutions count once, so it is stricter than
// Ratio on typos that replace a character.
func LevenshteinRatio(a, b string) float64 {
	a, b = textnorm.Normalize(a), textnorm.Normalize(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(longest)
}

// Metric names accepted by ParseMetric.
const (
	MetricIndel       = "indel"
	MetricLevenshtein = "levenshtein"
)

// ParseMetric maps a metric name to its ratio function.
func ParseMetric(name string) (RatioFunc, error) {
	switch textnorm.Normalize(name) {
	case "", MetricIndel:
		return Ratio, nil
	case MetricLevenshtein:
		return LevenshteinRatio, nil
	default:
		return nil, ErrUnknownMetric
	}
}
