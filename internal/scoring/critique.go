package scoring

import "strings"

// Critique thresholds. Each triggered rule appends its fixed message.
const (
	// SlowDurationSeconds flags executions slower than this.
	SlowDurationSeconds = 300.0
	// ShortOutputLength flags outputs shorter than this.
	ShortOutputLength = 200
	// LowGroundingScore flags grounding scores below this.
	LowGroundingScore = 50
)

// NoIssuesCritique is returned when no critique rule triggers.
const NoIssuesCritique = "No issues detected; execution met baseline expectations."

// critiqueRule is one entry in the fixed critique rule table. Keeping
// the rules as an enumerated table makes the policy total and testable.
type critiqueRule struct {
	name      string
	triggered func(RewardInputs) bool
	message   string
}

var critiqueRules = []critiqueRule{
	{
		name:      "failed",
		triggered: func(in RewardInputs) bool { return !in.Success },
		message:   "Execution failed; output may be incomplete or missing.",
	},
	{
		name:      "slow",
		triggered: func(in RewardInputs) bool { return in.DurationSeconds > SlowDurationSeconds },
		message:   "Execution exceeded the expected duration; consider narrowing scope.",
	},
	{
		name:      "short-output",
		triggered: func(in RewardInputs) bool { return in.OutputLength < ShortOutputLength },
		message:   "Output is shorter than expected; findings may lack depth.",
	},
	{
		name: "low-grounding",
		triggered: func(in RewardInputs) bool {
			if in.GroundingScore == nil {
				return false
			}
			return *in.GroundingScore < LowGroundingScore
		},
		message: "Low grounding score; claims may need independent verification.",
	},
}

// Critique applies the fixed rule table to the execution facts and
// returns the joined messages, or NoIssuesCritique when nothing triggers.
func Critique(in RewardInputs) string {
	var msgs []string
	for _, rule := range critiqueRules {
		if rule.triggered(in) {
			msgs = append(msgs, rule.message)
		}
	}
	if len(msgs) == 0 {
		return NoIssuesCritique
	}
	return strings.Join(msgs, " ")
}
