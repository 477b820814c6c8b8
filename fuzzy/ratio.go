// Package fuzzy scores the similarity of two strings on a [0,1] scale.
//
// Ratio is the normalized Indel similarity: one minus the number of insertions and
// deletions needed to turn one string into the other, divided by their combined length.
// TokenSortRatio applies Ratio after sorting whitespace tokens so word order does not
// matter. Both normalize their inputs with textnorm.Normalize and work on runes.
package fuzzy

import (
	"slices"
	"strings"

	"github.com/poiesic/ledgermatch/textnorm"
)

// RatioFunc scores two strings in [0,1], where 1 means identical after normalization.
type RatioFunc func(a, b string) float64

// Ratio returns the normalized Indel similarity of a and b.
func Ratio(a, b string) float64 {
	return indelRatio([]rune(textnorm.Normalize(a)), []rune(textnorm.Normalize(b)))
}

// TokenSortRatio compares a and b after sorting their tokens lexicographically.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

// TokenSortWith is TokenSortRatio using an arbitrary ratio function.
func TokenSortWith(ratio RatioFunc, a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := textnorm.NormalizedTokens(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

func indelRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	lcs := lcsLength(a, b)
	indel := total - 2*lcs
	return 1.0 - float64(indel)/float64(total)
}

// lcsLength computes the longest common subsequence with two rolling rows.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
