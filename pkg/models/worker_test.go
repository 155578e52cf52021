package models

import (
	"testing"
	"time"
)

func TestRoleValid(t *testing.T) {
	valid := []Role{
		RoleExplorer, RoleDepthAnalyst, RoleVerifier, RoleTrendAnalyst,
		RoleDomainExpert, RoleCriticalReviewer, RoleSynthesizer,
	}
	for _, r := range valid {
		if !r.Valid() {
			t.Errorf("Role(%q).Valid() = false, want true", r)
		}
	}

	invalid := []Role{"", "manager", "EXPLORER"}
	for _, r := range invalid {
		if r.Valid() {
			t.Errorf("Role(%q).Valid() = true, want false", r)
		}
	}
}

func TestComplexityValid(t *testing.T) {
	for _, c := range []Complexity{ComplexityLow, ComplexityMedium, ComplexityHigh, ComplexityVeryHigh} {
		if !c.Valid() {
			t.Errorf("Complexity(%q).Valid() = false, want true", c)
		}
	}
	if Complexity("extreme").Valid() {
		t.Error("Complexity(\"extreme\").Valid() = true, want false")
	}
}

func TestSwarmPlanSynthesizer(t *testing.T) {
	plan := &SwarmPlan{
		Workers: []WorkerSpec{
			{ID: "w1", Role: RoleExplorer, PriorityTier: 1},
			{ID: "w2", Role: RoleSynthesizer, PriorityTier: 3},
		},
	}

	synth := plan.Synthesizer()
	if synth == nil {
		t.Fatal("Synthesizer() = nil, want worker w2")
	}
	if synth.ID != "w2" {
		t.Errorf("Synthesizer().ID = %q, want %q", synth.ID, "w2")
	}

	empty := &SwarmPlan{Workers: []WorkerSpec{{ID: "w1", Role: RoleExplorer}}}
	if empty.Synthesizer() != nil {
		t.Error("Synthesizer() on plan without synthesizer = non-nil, want nil")
	}
}

func TestSwarmPlanTiers(t *testing.T) {
	plan := &SwarmPlan{
		Workers: []WorkerSpec{
			{ID: "a", PriorityTier: 3},
			{ID: "b", PriorityTier: 1},
			{ID: "c", PriorityTier: 2},
			{ID: "d", PriorityTier: 1},
		},
	}

	tiers := plan.Tiers()
	want := []int{1, 2, 3}
	if len(tiers) != len(want) {
		t.Fatalf("Tiers() = %v, want %v", tiers, want)
	}
	for i := range want {
		if tiers[i] != want[i] {
			t.Errorf("Tiers()[%d] = %d, want %d", i, tiers[i], want[i])
		}
	}
}

func TestJobStatusValid(t *testing.T) {
	for _, s := range []JobStatus{JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed} {
		if !s.Valid() {
			t.Errorf("JobStatus(%q).Valid() = false, want true", s)
		}
	}
	if JobStatus("paused").Valid() {
		t.Error("JobStatus(\"paused\").Valid() = true, want false")
	}
}

func TestJobTerminal(t *testing.T) {
	job := &Job{Status: JobStatusRunning, StartedAt: time.Now()}
	if job.Terminal() {
		t.Error("Terminal() = true for running job, want false")
	}
	job.Status = JobStatusCompleted
	if !job.Terminal() {
		t.Error("Terminal() = false for completed job, want true")
	}
	job.Status = JobStatusFailed
	if !job.Terminal() {
		t.Error("Terminal() = false for failed job, want true")
	}
}

func TestAssociationTypeValid(t *testing.T) {
	for _, a := range []AssociationType{AssociationSimilar, AssociationComplementary, AssociationContrasting, AssociationSequential} {
		if !a.Valid() {
			t.Errorf("AssociationType(%q).Valid() = false, want true", a)
		}
	}
	if AssociationType("related").Valid() {
		t.Error("AssociationType(\"related\").Valid() = true, want false")
	}
}
