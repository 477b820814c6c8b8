package match

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		description string
		entity      string
		wantTier    Tier
		wantScore   float64
	}{
		{"exact ignores case", "ALICE", "alice", TierExact, 1.0},
		{"exact ignores padding", "  Alice ", "ALICE", TierExact, 1.0},
		{"token exact", "payment from BOB today", "bob", TierTokenExact, 0.95},
		{"substring", "paid bobsled inc", "bob", TierSubstring, 0.85 + 0.1*3.0/16.0},
		{"fuzzy token typo", "payment to jonh", "john", TierFuzzyToken, 0.70 + (0.75-0.70)*(0.20/0.30)},
		{"fuzzy whole split name", "an na", "anna", TierFuzzyWhole, 8.0 / 9.0},
		{"empty description and name", "", "", TierExact, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, score, ok := Evaluate(tt.description, tt.entity)
			assert.True(t, ok)
			assert.Equal(t, tt.wantTier, tier)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
		})
	}
}

func TestEvaluate_NoMatch(t *testing.T) {
	tests := []struct {
		name        string
		description string
		entity      string
	}{
		{"unrelated", "coffee shop downtown", "zed"},
		{"empty description", "", "alice"},
		{"empty name", "payment from bob", ""},
		{"whitespace name", "payment from bob", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, score, ok := Evaluate(tt.description, tt.entity)
			assert.False(t, ok)
			assert.Equal(t, TierNone, tier)
			assert.Zero(t, score)
		})
	}
}

func TestEvaluate_FirstTierWins(t *testing.T) {
	// "bob" is both a token and a substring; the token tier must win.
	tier, score, ok := Evaluate("bob bobsled", "bob")
	assert.True(t, ok)
	assert.Equal(t, TierTokenExact, tier)
	assert.Equal(t, TokenExactScore, score)
}

func TestEvaluate_ScoreRanges(t *testing.T) {
	descriptions := []string{
		"payment from bob",
		"transfer to alicia smith",
		"jonh doe rent",
		"refund marry",
		"an na",
		"uber trip",
		"zelle to chris topher",
		"amazon marketplace purchase",
	}
	names := []string{"bob", "alice", "john", "mary", "anna", "uber", "christopher", "amazon", "zed", "al"}

	for _, d := range descriptions {
		for _, n := range names {
			tier, score, ok := Evaluate(d, n)
			if !ok {
				continue
			}
			switch tier {
			case TierExact:
				assert.Equal(t, 1.0, score)
			case TierTokenExact:
				assert.Equal(t, 0.95, score)
			case TierSubstring:
				assert.GreaterOrEqual(t, score, 0.85, "%q/%q", d, n)
				assert.LessOrEqual(t, score, 0.99, "%q/%q", d, n)
			case TierFuzzyToken:
				assert.GreaterOrEqual(t, score, 0.70, "%q/%q", d, n)
				assert.LessOrEqual(t, score, 0.90, "%q/%q", d, n)
			case TierFuzzyWhole:
				assert.GreaterOrEqual(t, score, 0.70, "%q/%q", d, n)
				assert.LessOrEqual(t, score, 1.0, "%q/%q", d, n)
			default:
				t.Fatalf("unexpected tier %v", tier)
			}
		}
	}
}

func TestSubstringScoreStaysBelowTokenExact(t *testing.T) {
	q := newQuery("ab", nil)
	score, ok := substringRule(q, "ab")
	assert.True(t, ok)
	assert.InDelta(t, 0.95, score, 1e-12)
	assert.LessOrEqual(t, score, SubstringCap)
}

func perturb(rng *rand.Rand, word string) string {
	r := []rune(word)
	if len(r) < 2 {
		return word + "x"
	}
	i := rng.Intn(len(r) - 1)
	switch rng.Intn(3) {
	case 0:
		r[i], r[i+1] = r[i+1], r[i]
	case 1:
		r = append(r[:i], r[i+1:]...)
	default:
		r[i] = 'a' + rune(rng.Intn(26))
	}
	return string(r)
}

// Names equal to the description or to one of its tokens outrank every
// fuzzy_token match. Only fuzzy_whole may score above TokenExactScore.
func TestEvaluate_TokenTiersOutrankFuzzyToken(t *testing.T) {
	vocab := []string{"payment", "alice", "bob", "john", "christopher", "maria", "amazon", "uber", "rent", "refund", "zelle", "marketplace"}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		words := make([]string, 1+rng.Intn(4))
		for j := range words {
			words[j] = vocab[rng.Intn(len(vocab))]
		}
		description := strings.Join(words, " ")

		names := []string{description}
		for _, w := range words {
			names = append(names, w, perturb(rng, w), perturb(rng, perturb(rng, w)))
		}
		names = append(names, strings.Join(words, ""))

		minToken, maxFuzzyToken := 2.0, 0.0
		for _, name := range names {
			tier, score, ok := Evaluate(description, name)
			if !ok {
				continue
			}
			switch tier {
			case TierExact, TierTokenExact:
				minToken = min(minToken, score)
			case TierFuzzyToken:
				maxFuzzyToken = max(maxFuzzyToken, score)
			}
			if score > TokenExactScore && tier != TierExact {
				assert.Contains(t, []Tier{TierSubstring, TierFuzzyWhole}, tier, "%q/%q", description, name)
			}
		}
		assert.GreaterOrEqual(t, minToken, maxFuzzyToken, "description %q", description)
	}
}

// A joined name with no token above the fuzzy threshold falls through to
// fuzzy_whole, whose unremapped ratio can exceed TokenExactScore.
func TestEvaluate_FuzzyWholeCanExceedTokenExact(t *testing.T) {
	tier, score, ok := Evaluate("abcde fghij", "abcdefghij")
	assert.True(t, ok)
	assert.Equal(t, TierFuzzyWhole, tier)
	assert.InDelta(t, 20.0/21.0, score, 1e-9)
	assert.Greater(t, score, TokenExactScore)
}

func TestRemapFuzzyToken(t *testing.T) {
	assert.InDelta(t, 0.70, remapFuzzyToken(0.70), 1e-12)
	assert.InDelta(t, 0.90, remapFuzzyToken(1.0), 1e-12)
	assert.InDelta(t, 0.80, remapFuzzyToken(0.85), 1e-12)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "fuzzy_whole", TierFuzzyWhole.String())
	assert.Equal(t, "none", Tier(42).String())
}
