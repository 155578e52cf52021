package scoring

import (
	"strings"
	"testing"
)

func TestCritiqueNoIssues(t *testing.T) {
	got := Critique(RewardInputs{
		Success:         true,
		GroundingScore:  intPtr(80),
		DurationSeconds: 60,
		OutputLength:    ShortOutputLength + 100,
	})
	if got != NoIssuesCritique {
		t.Errorf("Critique(clean) = %q, want %q", got, NoIssuesCritique)
	}
}

func TestCritiqueFailedExecution(t *testing.T) {
	got := Critique(RewardInputs{
		Success:         false,
		GroundingScore:  intPtr(80),
		DurationSeconds: 60,
		OutputLength:    ShortOutputLength + 100,
	})
	if !strings.Contains(got, "failed") {
		t.Errorf("Critique(failed) = %q, want mention of failure", got)
	}
	if strings.Contains(got, "shorter") {
		t.Errorf("Critique(failed) = %q, should not trigger short-output rule", got)
	}
}

func TestCritiqueMultipleRulesJoined(t *testing.T) {
	got := Critique(RewardInputs{
		Success:         false,
		GroundingScore:  intPtr(10),
		DurationSeconds: SlowDurationSeconds + 1,
		OutputLength:    10,
	})
	for _, want := range []string{"failed", "duration", "shorter", "grounding"} {
		if !strings.Contains(got, want) {
			t.Errorf("Critique(all rules) = %q, missing %q", got, want)
		}
	}
}

func TestCritiqueUndeclaredGroundingDoesNotTrigger(t *testing.T) {
	got := Critique(RewardInputs{
		Success:         true,
		DurationSeconds: 60,
		OutputLength:    ShortOutputLength + 100,
	})
	if strings.Contains(got, "grounding") {
		t.Errorf("Critique(nil grounding) = %q, low-grounding rule should not fire", got)
	}
}
