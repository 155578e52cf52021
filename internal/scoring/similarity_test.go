package scoring

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Analyze the API, then re-analyze it!")
	want := []string{"analyze", "the", "api", "then", "re", "it"}
	for _, tok := range want {
		if !got[tok] {
			t.Errorf("Tokenize() missing token %q (got %v)", tok, got)
		}
	}
	if len(got) != len(want) {
		t.Errorf("Tokenize() = %d tokens, want %d", len(got), len(want))
	}
}

func TestJaccard(t *testing.T) {
	a := Tokenize("quantum computing research")
	b := Tokenize("quantum computing hardware")
	// intersection 2, union 4
	if got, want := Jaccard(a, b), 0.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("Jaccard() = %v, want %v", got, want)
	}

	if got := Jaccard(a, a); got != 1.0 {
		t.Errorf("Jaccard(self) = %v, want 1.0", got)
	}

	if got := Jaccard(map[string]bool{}, map[string]bool{}); got != 0 {
		t.Errorf("Jaccard(empty, empty) = %v, want 0", got)
	}

	disjoint := Tokenize("completely different words")
	other := Tokenize("nothing shared here")
	if got := Jaccard(disjoint, other); got != 0 {
		t.Errorf("Jaccard(disjoint) = %v, want 0", got)
	}
}

func TestBlendedIdenticalSuccesses(t *testing.T) {
	got := Blended(BlendInputs{
		TextA: "analyze market trends", TextB: "analyze market trends",
		SuccessA: true, SuccessB: true,
		RewardA: 0.9, RewardB: 0.9,
	})
	want := 1.0 + SuccessBoostWeight + RewardAgreementWeight
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Blended(identical successes) = %v, want %v", got, want)
	}
}

func TestBlendedSuccessBoostRequiresBoth(t *testing.T) {
	base := BlendInputs{
		TextA: "alpha beta", TextB: "alpha beta",
		RewardA: 0.5, RewardB: 0.5,
	}

	both := base
	both.SuccessA, both.SuccessB = true, true
	one := base
	one.SuccessA = true

	if got, want := Blended(both)-Blended(one), SuccessBoostWeight; math.Abs(got-want) > 1e-9 {
		t.Errorf("success boost delta = %v, want %v", got, want)
	}
}

func TestBlendedRewardDistancePenalty(t *testing.T) {
	near := Blended(BlendInputs{TextA: "x", TextB: "y", RewardA: 0.8, RewardB: 0.8})
	far := Blended(BlendInputs{TextA: "x", TextB: "y", RewardA: 1.0, RewardB: 0.0})
	if near <= far {
		t.Errorf("Blended(near rewards) = %v should exceed Blended(far rewards) = %v", near, far)
	}
}
