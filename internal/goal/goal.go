// Package goal splits a high-level research goal into independent
// sub-goals before decomposition. Splitting is best-effort: any failure
// falls back to treating the whole goal as a single task, and the
// outcome records which path was taken.
package goal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/hivemindlab/swarm/internal/runner"
	"github.com/hivemindlab/swarm/pkg/models"
)

// maxSubGoals caps how many sub-goals one split may produce.
const maxSubGoals = 5

// splitTimeBudgetSeconds bounds the splitting agent call.
const splitTimeBudgetSeconds = 120

// Mode records which path a split took.
type Mode string

const (
	// ModeDecomposed means the goal was split into multiple sub-goals.
	ModeDecomposed Mode = "decomposed"
	// ModeSingle means the whole goal runs as one task, either because
	// splitting was unavailable or because it failed.
	ModeSingle Mode = "single"
)

// SubGoal is one independently researchable piece of the goal.
type SubGoal struct {
	Task       string
	Complexity models.Complexity
}

// Outcome is the result of a split attempt. Mode is always set and
// SubGoals always holds at least one entry.
type Outcome struct {
	Mode     Mode
	SubGoals []SubGoal
	// Err records why splitting fell back to single mode. It is nil
	// when the split succeeded or when no runner was configured.
	Err error
}

const splitPromptTemplate = `Split the following research goal into independent sub-goals that can be researched separately. Produce between 2 and %d sub-goals. If the goal is already a single focused question, return it as one sub-goal.

Goal: %s

Respond with ONLY a JSON array, no other text:
[{"task": "sub-goal text", "complexity": "low|medium|high|very-high"}]`

// Splitter splits goals with an agent call. A nil runner disables
// splitting entirely.
type Splitter struct {
	runner runner.AgentRunner
}

// New creates a Splitter. r may be nil.
func New(r runner.AgentRunner) *Splitter {
	return &Splitter{runner: r}
}

// Split attempts to decompose the goal. It never returns an error;
// failures are folded into a single-mode Outcome carrying the cause.
func (s *Splitter) Split(ctx context.Context, goalText string) *Outcome {
	goalText = strings.TrimSpace(goalText)

	if s.runner == nil {
		return singleOutcome(goalText, nil)
	}

	res, err := s.runner.Run(ctx, runner.Request{
		PromptText:        fmt.Sprintf(splitPromptTemplate, maxSubGoals, goalText),
		TimeBudgetSeconds: splitTimeBudgetSeconds,
	})
	if err != nil {
		return singleOutcome(goalText, fmt.Errorf("running splitter: %w", err))
	}
	if res.ExitCode != 0 {
		return singleOutcome(goalText, fmt.Errorf("splitter exited with code %d", res.ExitCode))
	}

	subGoals, err := parseSubGoals(res.Output)
	if err != nil {
		return singleOutcome(goalText, err)
	}
	if len(subGoals) < 2 {
		return singleOutcome(goalText, nil)
	}

	return &Outcome{Mode: ModeDecomposed, SubGoals: subGoals}
}

func singleOutcome(goalText string, err error) *Outcome {
	if err != nil {
		log.Printf("[goal] falling back to single task: %v", err)
	}
	return &Outcome{
		Mode:     ModeSingle,
		SubGoals: []SubGoal{{Task: goalText, Complexity: models.ComplexityMedium}},
		Err:      err,
	}
}

// parseSubGoals extracts the JSON array from the agent output and
// validates each entry.
func parseSubGoals(output string) ([]SubGoal, error) {
	start := strings.Index(output, "[")
	end := strings.LastIndex(output, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in splitter output")
	}

	var raw []struct {
		Task       string `json:"task"`
		Complexity string `json:"complexity"`
	}
	if err := json.Unmarshal([]byte(output[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parsing splitter output: %w", err)
	}

	subGoals := make([]SubGoal, 0, len(raw))
	for _, r := range raw {
		task := strings.TrimSpace(r.Task)
		if task == "" {
			continue
		}
		subGoals = append(subGoals, SubGoal{
			Task:       task,
			Complexity: normalizeComplexity(r.Complexity),
		})
		if len(subGoals) == maxSubGoals {
			break
		}
	}
	if len(subGoals) == 0 {
		return nil, fmt.Errorf("splitter output contained no usable sub-goals")
	}
	return subGoals, nil
}

func normalizeComplexity(label string) models.Complexity {
	switch models.Complexity(strings.ToLower(strings.TrimSpace(label))) {
	case models.ComplexityLow:
		return models.ComplexityLow
	case models.ComplexityHigh:
		return models.ComplexityHigh
	case models.ComplexityVeryHigh:
		return models.ComplexityVeryHigh
	default:
		return models.ComplexityMedium
	}
}
