package decompose

import (
	"errors"
	"strings"
	"testing"

	"github.com/hivemindlab/swarm/pkg/models"
)

func TestSwarmSizeByDepth(t *testing.T) {
	cases := []struct {
		depth int
		want  int
	}{
		{1, 3}, {2, 3}, {3, 3},
		{4, 5}, {5, 5}, {6, 5},
		{7, 7}, {8, 7}, {9, 7}, {10, 7},
	}
	for _, tc := range cases {
		if got := SwarmSize(tc.depth, 0, ""); got != tc.want {
			t.Errorf("SwarmSize(depth=%d) = %d, want %d", tc.depth, got, tc.want)
		}
	}
}

func TestSwarmSizeComplexityShifts(t *testing.T) {
	cases := []struct {
		depth      int
		complexity models.Complexity
		want       int
	}{
		{5, models.ComplexityLow, 3},      // 5-2
		{1, models.ComplexityLow, 3},      // clamped at minimum
		{5, models.ComplexityMedium, 5},   // unchanged
		{5, models.ComplexityHigh, 6},     // 5+1
		{8, models.ComplexityHigh, 7},     // clamped at maximum
		{1, models.ComplexityVeryHigh, 7}, // forced to maximum
	}
	for _, tc := range cases {
		if got := SwarmSize(tc.depth, 0, tc.complexity); got != tc.want {
			t.Errorf("SwarmSize(depth=%d, %s) = %d, want %d", tc.depth, tc.complexity, got, tc.want)
		}
	}
}

func TestSwarmSizeHintUsedWhenDepthUnset(t *testing.T) {
	if got := SwarmSize(0, 3, ""); got != 3 {
		t.Errorf("SwarmSize(depth=0, hint=3) = %d, want 3", got)
	}
	if got := SwarmSize(0, 0, ""); got != 5 {
		t.Errorf("SwarmSize(depth=0, no hint) = %d, want default 5", got)
	}
}

func TestDecomposeRoleSets(t *testing.T) {
	d := New(nil)

	cases := []struct {
		depth int
		roles []models.Role
	}{
		{2, []models.Role{models.RoleExplorer, models.RoleDepthAnalyst, models.RoleSynthesizer}},
		{5, []models.Role{models.RoleExplorer, models.RoleDepthAnalyst, models.RoleVerifier, models.RoleTrendAnalyst, models.RoleSynthesizer}},
		{9, []models.Role{models.RoleExplorer, models.RoleDepthAnalyst, models.RoleVerifier, models.RoleTrendAnalyst, models.RoleDomainExpert, models.RoleCriticalReviewer, models.RoleSynthesizer}},
	}

	for _, tc := range cases {
		plan, err := d.Decompose(Request{Task: "Analyze X", Depth: tc.depth, TimeBudgetSeconds: 3600})
		if err != nil {
			t.Fatalf("Decompose(depth=%d) error = %v", tc.depth, err)
		}

		got := make(map[models.Role]bool)
		for _, w := range plan.Workers {
			got[w.Role] = true
		}
		if len(plan.Workers) != len(tc.roles) {
			t.Errorf("depth=%d: %d workers, want %d", tc.depth, len(plan.Workers), len(tc.roles))
		}
		for _, r := range tc.roles {
			if !got[r] {
				t.Errorf("depth=%d: missing role %s", tc.depth, r)
			}
		}
	}
}

func TestDecomposeSynthesizerAtHighestTier(t *testing.T) {
	d := New(nil)
	for _, depth := range []int{1, 5, 10} {
		plan, err := d.Decompose(Request{Task: "Analyze X", Depth: depth, TimeBudgetSeconds: 3600})
		if err != nil {
			t.Fatalf("Decompose(depth=%d) error = %v", depth, err)
		}

		synth := plan.Synthesizer()
		if synth == nil {
			t.Fatalf("depth=%d: plan has no synthesizer", depth)
		}
		for _, w := range plan.Workers {
			if w.Role != models.RoleSynthesizer && w.PriorityTier >= synth.PriorityTier {
				t.Errorf("depth=%d: worker %s tier %d >= synthesizer tier %d",
					depth, w.Role, w.PriorityTier, synth.PriorityTier)
			}
		}
	}
}

func TestDecomposePriorityTiers(t *testing.T) {
	d := New(nil)
	plan, err := d.Decompose(Request{Task: "Analyze X", Depth: 5, TimeBudgetSeconds: 3600})
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	wantTiers := map[models.Role]int{
		models.RoleExplorer:     1,
		models.RoleDepthAnalyst: 1,
		models.RoleVerifier:     2,
		models.RoleTrendAnalyst: 2,
		models.RoleSynthesizer:  3,
	}
	for _, w := range plan.Workers {
		if want := wantTiers[w.Role]; w.PriorityTier != want {
			t.Errorf("role %s tier = %d, want %d", w.Role, w.PriorityTier, want)
		}
	}
}

func TestDecomposeTimeSharesSumToBudget(t *testing.T) {
	d := New(nil)
	const budget = 3600
	for _, depth := range []int{2, 5, 9} {
		plan, err := d.Decompose(Request{Task: "Analyze X", Depth: depth, TimeBudgetSeconds: budget})
		if err != nil {
			t.Fatalf("Decompose(depth=%d) error = %v", depth, err)
		}

		total := 0
		for _, w := range plan.Workers {
			if w.TimeBudgetSeconds <= 0 {
				t.Errorf("depth=%d: worker %s has non-positive budget %d", depth, w.Role, w.TimeBudgetSeconds)
			}
			total += w.TimeBudgetSeconds
		}
		// Integer truncation loses at most one second per worker.
		if total > budget || total < budget-len(plan.Workers) {
			t.Errorf("depth=%d: allocated %ds, want within [%d,%d]", depth, total, budget-len(plan.Workers), budget)
		}
	}
}

func TestDecomposeEmptyTask(t *testing.T) {
	d := New(nil)
	if _, err := d.Decompose(Request{Task: "  ", Depth: 5, TimeBudgetSeconds: 60}); err == nil {
		t.Error("Decompose(empty task) error = nil, want error")
	}
}

type stubConsulter struct {
	patterns []*models.Pattern
	strategy *models.MemoryDistillation
	err      error
}

func (s *stubConsulter) SimilarPatterns(task string, k int) ([]*models.Pattern, error) {
	return s.patterns, s.err
}

func (s *stubConsulter) StrategyFor(task string) (*models.MemoryDistillation, error) {
	return s.strategy, s.err
}

func TestDecomposeMemoryConsultation(t *testing.T) {
	consulter := &stubConsulter{patterns: []*models.Pattern{
		{Role: models.RoleExplorer, Reward: 0.9, OutputSummary: "prior exploration found key sources"},
	}}
	d := New(consulter)

	plan, err := d.Decompose(Request{Task: "Analyze X", Depth: 2, TimeBudgetSeconds: 600})
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	for _, w := range plan.Workers {
		hasInsight := strings.Contains(w.PromptText, "prior exploration found key sources")
		if w.Role == models.RoleSynthesizer {
			if hasInsight {
				t.Error("synthesizer prompt should not carry prior insights")
			}
		} else if !hasInsight {
			t.Errorf("worker %s prompt missing memory insight", w.Role)
		}
	}
}

func TestDecomposeStrategyConsultation(t *testing.T) {
	consulter := &stubConsulter{strategy: &models.MemoryDistillation{
		SourceCategory:  "research",
		ConfidenceScore: 0.8,
		BestPractices:   "Favor the depth-analyst approach for research tasks",
	}}
	d := New(consulter)

	plan, err := d.Decompose(Request{Task: "Analyze X", Depth: 2, TimeBudgetSeconds: 600})
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	for _, w := range plan.Workers {
		hasStrategy := strings.Contains(w.PromptText, "Favor the depth-analyst approach")
		if w.Role == models.RoleSynthesizer {
			if hasStrategy {
				t.Error("synthesizer prompt should not carry the strategy")
			}
		} else if !hasStrategy {
			t.Errorf("worker %s prompt missing distilled strategy", w.Role)
		}
	}
}

func TestDecomposeMemoryFailureIsNonFatal(t *testing.T) {
	d := New(&stubConsulter{err: errors.New("store offline")})
	if _, err := d.Decompose(Request{Task: "Analyze X", Depth: 2, TimeBudgetSeconds: 600}); err != nil {
		t.Errorf("Decompose() with failing consulter error = %v, want nil", err)
	}
}
