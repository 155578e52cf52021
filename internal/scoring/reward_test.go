package scoring

import (
	"math"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestRewardPerfectExecution(t *testing.T) {
	// success + full grounding + ideal duration + long output saturates
	// the formula; the clamp holds it at 1.0.
	got := Reward(RewardInputs{
		Success:         true,
		GroundingScore:  intPtr(100),
		DurationSeconds: IdealDurationSeconds,
		OutputLength:    LongOutputThreshold + 1,
	})
	if got != 1.0 {
		t.Errorf("Reward(perfect) = %v, want 1.0", got)
	}
}

func TestRewardFailedExecutionBaseline(t *testing.T) {
	// Failure with zero grounding, no measurable duration, and short
	// output adds nothing to the 0.5 base.
	got := Reward(RewardInputs{
		Success:         false,
		GroundingScore:  intPtr(0),
		DurationSeconds: 0,
		OutputLength:    0,
	})
	if got != 0.5 {
		t.Errorf("Reward(failed baseline) = %v, want 0.5", got)
	}
}

func TestRewardDefaultGrounding(t *testing.T) {
	// Undeclared grounding uses the neutral default of 50.
	got := Reward(RewardInputs{Success: false})
	want := 0.5 + 0.2*float64(DefaultGroundingScore)/100.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Reward(no grounding) = %v, want %v", got, want)
	}
}

func TestRewardSpeedTermCapped(t *testing.T) {
	// A duration faster than ideal must not grant more than the full
	// 0.1 speed bonus.
	fast := Reward(RewardInputs{DurationSeconds: IdealDurationSeconds / 10, GroundingScore: intPtr(0)})
	atIdeal := Reward(RewardInputs{DurationSeconds: IdealDurationSeconds, GroundingScore: intPtr(0)})
	if math.Abs(fast-atIdeal) > 1e-9 {
		t.Errorf("Reward(fast) = %v, Reward(ideal) = %v, want equal", fast, atIdeal)
	}
}

func TestRewardSlowExecutionPartialSpeedTerm(t *testing.T) {
	got := Reward(RewardInputs{
		Success:         false,
		GroundingScore:  intPtr(0),
		DurationSeconds: IdealDurationSeconds * 2,
	})
	want := 0.5 + 0.1*0.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Reward(2x ideal duration) = %v, want %v", got, want)
	}
}

func TestRewardGroundingOutOfRangeClamped(t *testing.T) {
	over := Reward(RewardInputs{GroundingScore: intPtr(250)})
	atMax := Reward(RewardInputs{GroundingScore: intPtr(100)})
	if over != atMax {
		t.Errorf("Reward(grounding=250) = %v, want %v", over, atMax)
	}

	under := Reward(RewardInputs{GroundingScore: intPtr(-10)})
	atMin := Reward(RewardInputs{GroundingScore: intPtr(0)})
	if under != atMin {
		t.Errorf("Reward(grounding=-10) = %v, want %v", under, atMin)
	}
}

func TestConfidenceBounds(t *testing.T) {
	if got := Confidence(1.0, intPtr(100)); got != 1.0 {
		t.Errorf("Confidence(1.0, 100) = %v, want 1.0", got)
	}
	if got := Confidence(0, intPtr(0)); got != 0 {
		t.Errorf("Confidence(0, 0) = %v, want 0", got)
	}
	mid := Confidence(0.5, nil)
	want := (2*0.5 + 0.5) / 3.0
	if math.Abs(mid-want) > 1e-9 {
		t.Errorf("Confidence(0.5, nil) = %v, want %v", mid, want)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.2, 1},
	}
	for _, tc := range cases {
		if got := Clamp01(tc.in); got != tc.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
