package match

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ledgermatch/fuzzy"
	"github.com/poiesic/ledgermatch/textnorm"
)

// Tier identifies which rule produced a match.
type Tier int

const (
	// TierNone means no rule matched.
	TierNone Tier = iota
	// TierExact: description and name are equal.
	TierExact
	// TierTokenExact: a description token equals the name.
	TierTokenExact
	// TierSubstring: the name occurs inside the description.
	TierSubstring
	// TierFuzzyToken: a description token is close to the name.
	TierFuzzyToken
	// TierFuzzyWhole: the whole description is close to the name, ignoring word order.
	TierFuzzyWhole
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierTokenExact:
		return "token_exact"
	case TierSubstring:
		return "substring"
	case TierFuzzyToken:
		return "fuzzy_token"
	case TierFuzzyWhole:
		return "fuzzy_whole"
	default:
		return "none"
	}
}

// Scores and cut-offs of the tier ladder.
const (
	ExactScore      = 1.0
	TokenExactScore = 0.95

	SubstringBase = 0.85
	SubstringSpan = 0.10
	SubstringCap  = 0.99

	// FuzzyThreshold is the minimum ratio for either fuzzy tier.
	FuzzyThreshold = 0.70
	// FuzzyTokenCeiling is the score a perfect fuzzy token ratio maps to.
	FuzzyTokenCeiling = 0.90
)

// query is a description prepared once and evaluated against many names.
type query struct {
	description string
	tokens      []string
	runes       int
	ratio       fuzzy.RatioFunc
}

func newQuery(description string, ratio fuzzy.RatioFunc) *query {
	if ratio == nil {
		ratio = fuzzy.Ratio
	}
	d := textnorm.Normalize(description)
	return &query{
		description: d,
		tokens:      textnorm.Tokenize(d),
		runes:       utf8.RuneCountInString(d),
		ratio:       ratio,
	}
}

type rule struct {
	tier  Tier
	score func(q *query, name string) (float64, bool)
}

// ladder is evaluated top to bottom; the first rule that succeeds decides the score.
var ladder = []rule{
	{TierExact, exactRule},
	{TierTokenExact, tokenExactRule},
	{TierSubstring, substringRule},
	{TierFuzzyToken, fuzzyTokenRule},
	{TierFuzzyWhole, fuzzyWholeRule},
}

// evaluate runs the ladder for one normalized name.
func (q *query) evaluate(name string) (Tier, float64, bool) {
	for _, r := range ladder {
		if score, ok := r.score(q, name); ok {
			return r.tier, score, true
		}
	}
	return TierNone, 0, false
}

func exactRule(q *query, name string) (float64, bool) {
	return ExactScore, q.description == name
}

func tokenExactRule(q *query, name string) (float64, bool) {
	if name == "" {
		return 0, false
	}
	for _, token := range q.tokens {
		if token == name {
			return TokenExactScore, true
		}
	}
	return 0, false
}

func substringRule(q *query, name string) (float64, bool) {
	if name == "" || q.runes == 0 || !strings.Contains(q.description, name) {
		return 0, false
	}
	share := float64(utf8.RuneCountInString(name)) / float64(q.runes)
	return min(SubstringCap, SubstringBase+SubstringSpan*share), true
}

func fuzzyTokenRule(q *query, name string) (float64, bool) {
	if name == "" {
		return 0, false
	}
	best := 0.0
	for _, token := range q.tokens {
		best = max(best, q.ratio(token, name))
	}
	if best < FuzzyThreshold {
		return 0, false
	}
	return remapFuzzyToken(best), true
}

func fuzzyWholeRule(q *query, name string) (float64, bool) {
	if name == "" {
		return 0, false
	}
	ratio := fuzzy.TokenSortWith(q.ratio, q.description, name)
	return ratio, ratio >= FuzzyThreshold
}

// remapFuzzyToken maps a ratio in [FuzzyThreshold, 1] linearly onto [FuzzyThreshold, FuzzyTokenCeiling].
func remapFuzzyToken(ratio float64) float64 {
	return FuzzyThreshold + (ratio-FuzzyThreshold)*((FuzzyTokenCeiling-FuzzyThreshold)/(1.0-FuzzyThreshold))
}
