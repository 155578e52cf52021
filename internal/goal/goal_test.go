package goal

import (
	"context"
	"errors"
	"testing"

	"github.com/hivemindlab/swarm/internal/runner"
	"github.com/hivemindlab/swarm/pkg/models"
)

func TestSplitDecomposesValidOutput(t *testing.T) {
	stub := &runner.StubRunner{
		Default: runner.Result{
			Output: `Here is the split:
[{"task": "map the supply chain", "complexity": "high"},
 {"task": "survey pricing trends", "complexity": "low"},
 {"task": "profile the top vendors", "complexity": "bogus"}]`,
		},
	}

	out := New(stub).Split(context.Background(), "analyze the widget market")
	if out.Mode != ModeDecomposed {
		t.Fatalf("Mode = %q, want decomposed", out.Mode)
	}
	if out.Err != nil {
		t.Errorf("Err = %v, want nil", out.Err)
	}
	if len(out.SubGoals) != 3 {
		t.Fatalf("len(SubGoals) = %d, want 3", len(out.SubGoals))
	}
	if out.SubGoals[0].Task != "map the supply chain" {
		t.Errorf("SubGoals[0].Task = %q", out.SubGoals[0].Task)
	}
	if out.SubGoals[0].Complexity != models.ComplexityHigh {
		t.Errorf("SubGoals[0].Complexity = %q, want high", out.SubGoals[0].Complexity)
	}
	if out.SubGoals[1].Complexity != models.ComplexityLow {
		t.Errorf("SubGoals[1].Complexity = %q, want low", out.SubGoals[1].Complexity)
	}
	// Unknown labels normalize to medium.
	if out.SubGoals[2].Complexity != models.ComplexityMedium {
		t.Errorf("SubGoals[2].Complexity = %q, want medium", out.SubGoals[2].Complexity)
	}
}

func TestSplitCapsSubGoals(t *testing.T) {
	stub := &runner.StubRunner{
		Default: runner.Result{
			Output: `[{"task": "a"}, {"task": "b"}, {"task": "c"},
 {"task": "d"}, {"task": "e"}, {"task": "f"}, {"task": "g"}]`,
		},
	}

	out := New(stub).Split(context.Background(), "broad goal")
	if out.Mode != ModeDecomposed {
		t.Fatalf("Mode = %q, want decomposed", out.Mode)
	}
	if len(out.SubGoals) != maxSubGoals {
		t.Errorf("len(SubGoals) = %d, want %d", len(out.SubGoals), maxSubGoals)
	}
}

func TestSplitFallsBackOnGarbageOutput(t *testing.T) {
	stub := &runner.StubRunner{
		Default: runner.Result{Output: "I cannot split this goal."},
	}

	out := New(stub).Split(context.Background(), "the goal")
	if out.Mode != ModeSingle {
		t.Fatalf("Mode = %q, want single", out.Mode)
	}
	if out.Err == nil {
		t.Error("Err = nil, want parse failure recorded")
	}
	if len(out.SubGoals) != 1 || out.SubGoals[0].Task != "the goal" {
		t.Errorf("SubGoals = %+v, want the original goal", out.SubGoals)
	}
}

func TestSplitFallsBackOnRunnerError(t *testing.T) {
	stub := &runner.StubRunner{
		Responses: []runner.StubResponse{
			{Match: "Split the following", Err: errors.New("agent unavailable")},
		},
	}

	out := New(stub).Split(context.Background(), "the goal")
	if out.Mode != ModeSingle {
		t.Fatalf("Mode = %q, want single", out.Mode)
	}
	if out.Err == nil {
		t.Error("Err = nil, want runner error recorded")
	}
}

func TestSplitFallsBackOnNonZeroExit(t *testing.T) {
	stub := &runner.StubRunner{
		Default: runner.Result{ExitCode: 1, Output: "budget exceeded"},
	}

	out := New(stub).Split(context.Background(), "the goal")
	if out.Mode != ModeSingle {
		t.Fatalf("Mode = %q, want single", out.Mode)
	}
	if out.Err == nil {
		t.Error("Err = nil, want exit code recorded")
	}
}

func TestSplitSingleEntryStaysSingle(t *testing.T) {
	stub := &runner.StubRunner{
		Default: runner.Result{Output: `[{"task": "already focused"}]`},
	}

	out := New(stub).Split(context.Background(), "already focused")
	if out.Mode != ModeSingle {
		t.Fatalf("Mode = %q, want single for one sub-goal", out.Mode)
	}
	if out.Err != nil {
		t.Errorf("Err = %v, want nil", out.Err)
	}
}

func TestSplitNilRunner(t *testing.T) {
	out := New(nil).Split(context.Background(), "  padded goal  ")
	if out.Mode != ModeSingle {
		t.Fatalf("Mode = %q, want single", out.Mode)
	}
	if out.Err != nil {
		t.Errorf("Err = %v, want nil", out.Err)
	}
	if out.SubGoals[0].Task != "padded goal" {
		t.Errorf("Task = %q, want trimmed goal", out.SubGoals[0].Task)
	}
}
