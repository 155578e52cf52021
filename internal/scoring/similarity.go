package scoring

import "strings"

// Blended similarity weights. The blend augments raw text overlap with
// outcome agreement so that retrieval favors patterns whose executions
// resembled each other, not just their wording.
const (
	// SuccessBoostWeight is added when both patterns succeeded.
	SuccessBoostWeight = 0.5
	// RewardAgreementWeight scales the reward-proximity term.
	RewardAgreementWeight = 0.3
)

// Tokenize lowercases the text and splits it into a set of word tokens.
// Punctuation is treated as a separator.
func Tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens[b.String()] = true
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Jaccard computes the Jaccard coefficient of two token sets.
// Two empty sets have coefficient 0.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// BlendInputs describes the two records being compared.
type BlendInputs struct {
	// TextA and TextB are the contents being compared.
	TextA, TextB string
	// SuccessA and SuccessB are the execution outcomes.
	SuccessA, SuccessB bool
	// RewardA and RewardB are the recorded rewards in [0,1].
	RewardA, RewardB float64
}

// Blended computes the blended similarity score:
//
//	jaccard + 0.5*successBoost + 0.3*(1 - |rewardA - rewardB|)
//
// where successBoost is 1 only when both executions succeeded. The
// result is not clamped; callers rank by relative magnitude.
func Blended(in BlendInputs) float64 {
	score := Jaccard(Tokenize(in.TextA), Tokenize(in.TextB))
	if in.SuccessA && in.SuccessB {
		score += SuccessBoostWeight
	}
	diff := in.RewardA - in.RewardB
	if diff < 0 {
		diff = -diff
	}
	score += RewardAgreementWeight * (1 - diff)
	return score
}
