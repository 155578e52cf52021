package memory

import (
	"testing"

	"github.com/hivemindlab/swarm/pkg/models"
)

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func TestAssociateClassifiesPairs(t *testing.T) {
	b := newTestBank(t)

	identical := successResult(models.RoleExplorer, "caching reduces tail latency")
	simA, _, err := b.RecordExecution("job-1", "implement caching layer for api gateway", identical, 5)
	if err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	simB, _, err := b.RecordExecution("job-2", "implement caching layer for api gateway", identical, 5)
	if err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	other, _, err := b.RecordExecution("job-3", "survey renewable energy storage economics",
		successResult(models.RoleTrendAnalyst, "grid batteries dominate new installs"), 5)
	if err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	failed, _, err := b.RecordExecution("job-4", "audit container registry permissions",
		failedResult(models.RoleVerifier, "registry unreachable"), 5)
	if err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	written, err := b.Associate()
	if err != nil {
		t.Fatalf("Associate() error = %v", err)
	}
	if written != 6 {
		t.Fatalf("Associate() wrote %d edges, want 6", written)
	}

	assocs, err := b.ListAssociations()
	if err != nil {
		t.Fatalf("ListAssociations() error = %v", err)
	}
	types := make(map[[2]string]models.AssociationType, len(assocs))
	for _, a := range assocs {
		if a.PatternIDA >= a.PatternIDB {
			t.Errorf("pair (%q, %q) not normalized", a.PatternIDA, a.PatternIDB)
		}
		types[pairKey(a.PatternIDA, a.PatternIDB)] = a.AssociationType
	}

	if got := types[pairKey(simA.ID, simB.ID)]; got != models.AssociationSimilar {
		t.Errorf("identical successes classified %q, want %q", got, models.AssociationSimilar)
	}
	if got := types[pairKey(simA.ID, other.ID)]; got != models.AssociationComplementary {
		t.Errorf("divergent successes classified %q, want %q", got, models.AssociationComplementary)
	}
	if got := types[pairKey(simA.ID, failed.ID)]; got != models.AssociationContrasting {
		t.Errorf("success/failure pair classified %q, want %q", got, models.AssociationContrasting)
	}
	if got := types[pairKey(other.ID, failed.ID)]; got != models.AssociationContrasting {
		t.Errorf("success/failure pair classified %q, want %q", got, models.AssociationContrasting)
	}
}

func TestAssociateRecomputationOverwrites(t *testing.T) {
	b := newTestBank(t)

	for _, task := range []string{
		"implement grpc transport",
		"research edge inference hardware",
		"validate checksum pipeline",
	} {
		if _, _, err := b.RecordExecution("job-1", task,
			successResult(models.RoleExplorer, task+" findings"), 5); err != nil {
			t.Fatalf("RecordExecution() error = %v", err)
		}
	}

	if _, err := b.Associate(); err != nil {
		t.Fatalf("Associate() first run error = %v", err)
	}
	first, err := b.ListAssociations()
	if err != nil {
		t.Fatalf("ListAssociations() error = %v", err)
	}

	if _, err := b.Associate(); err != nil {
		t.Fatalf("Associate() second run error = %v", err)
	}
	second, err := b.ListAssociations()
	if err != nil {
		t.Fatalf("ListAssociations() error = %v", err)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("association counts = %d then %d, want 3 and 3", len(first), len(second))
	}

	ids := make(map[[2]string]string, len(first))
	for _, a := range first {
		ids[pairKey(a.PatternIDA, a.PatternIDB)] = a.ID
	}
	for _, a := range second {
		if want := ids[pairKey(a.PatternIDA, a.PatternIDB)]; a.ID != want {
			t.Errorf("pair id changed on recomputation: got %q, want %q", a.ID, want)
		}
	}
}
