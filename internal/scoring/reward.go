// Package scoring provides the pure reward, critique, and similarity
// functions used by the reasoning bank. Nothing in this package performs
// I/O or holds state.
package scoring

// DefaultGroundingScore is substituted when a runner declares no
// grounding score. It is the neutral midpoint of the 0-100 scale.
const DefaultGroundingScore = 50

// IdealDurationSeconds is the reference duration used by the reward
// formula's speed term.
const IdealDurationSeconds = 120.0

// LongOutputThreshold is the output length above which the reward
// formula grants its length bonus.
const LongOutputThreshold = 1000

// RewardInputs are the observed facts about one execution that the
// reward formula consumes. Missing metrics are replaced with documented
// defaults rather than failing.
type RewardInputs struct {
	// Success is whether the execution succeeded.
	Success bool
	// GroundingScore is the runner's declared confidence (0-100).
	// Nil means undeclared; DefaultGroundingScore is used.
	GroundingScore *int
	// DurationSeconds is the measured execution duration. A
	// non-positive value disables the speed term.
	DurationSeconds float64
	// OutputLength is the length of the produced output in bytes.
	OutputLength int
}

// Reward computes the deterministic reward for one execution:
//
//	0.5 + 0.3*success + 0.2*(grounding/100) + 0.1*min(1, ideal/actual) + 0.1*(len>1000)
//
// clamped to [0,1].
func Reward(in RewardInputs) float64 {
	r := 0.5

	if in.Success {
		r += 0.3
	}

	grounding := DefaultGroundingScore
	if in.GroundingScore != nil {
		grounding = clampInt(*in.GroundingScore, 0, 100)
	}
	r += 0.2 * float64(grounding) / 100.0

	if in.DurationSeconds > 0 {
		speed := IdealDurationSeconds / in.DurationSeconds
		if speed > 1 {
			speed = 1
		}
		r += 0.1 * speed
	}

	if in.OutputLength > LongOutputThreshold {
		r += 0.1
	}

	return Clamp01(r)
}

// Confidence derives a pattern confidence from the reward and the
// grounding score. It weights the reward twice as heavily.
func Confidence(reward float64, groundingScore *int) float64 {
	grounding := DefaultGroundingScore
	if groundingScore != nil {
		grounding = clampInt(*groundingScore, 0, 100)
	}
	return Clamp01((2*reward + float64(grounding)/100.0) / 3.0)
}

// Clamp01 clamps v to the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
