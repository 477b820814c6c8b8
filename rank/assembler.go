// Package rank turns raw per-candidate scores into a stable ranked result.
//
// Ordering is descending by score with ties broken by ascending candidate id, so the
// same scores always produce the same output regardless of map iteration order.
package rank

import (
	"cmp"
	"math"
	"slices"

	"github.com/poiesic/ledgermatch/core"
)

type settings struct {
	threshold    float64
	hasThreshold bool
	precision    int
	limit        int
}

// Option configures Assemble.
type Option func(*settings)

// WithThreshold keeps only scores strictly greater than t.
func WithThreshold(t float64) Option {
	return func(s *settings) {
		s.threshold = t
		s.hasThreshold = true
	}
}

// WithPrecision rounds scores half away from zero to the given number of decimals.
// Negative values disable rounding.
func WithPrecision(decimals int) Option {
	return func(s *settings) {
		s.precision = decimals
	}
}

// WithLimit truncates the ordered list to n entries. Count is unaffected.
// Values <= 0 disable truncation.
func WithLimit(n int) Option {
	return func(s *settings) {
		s.limit = n
	}
}

// Assemble filters, rounds, orders and truncates scores, in that order.
func Assemble(scores map[string]float64, opts ...Option) core.RankedResult {
	s := settings{precision: -1}
	for _, opt := range opts {
		opt(&s)
	}

	matches := make([]core.MatchScore, 0, len(scores))
	for id, score := range scores {
		if s.hasThreshold && !(score > s.threshold) {
			continue
		}
		if s.precision >= 0 {
			score = Round(score, s.precision)
		}
		matches = append(matches, core.MatchScore{CandidateID: id, Score: score})
	}

	Sort(matches)

	count := len(matches)
	if s.limit > 0 && len(matches) > s.limit {
		matches = matches[:s.limit]
	}
	return core.RankedResult{Matches: matches, Count: count}
}

// Sort orders matches in place by descending score, then ascending id.
func Sort(matches []core.MatchScore) {
	slices.SortFunc(matches, Compare)
}

// Compare is the ranking order used by Sort.
func Compare(a, b core.MatchScore) int {
	if a.Score > b.Score {
		return -1
	}
	if a.Score < b.Score {
		return 1
	}
	return cmp.Compare(a.CandidateID, b.CandidateID)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
