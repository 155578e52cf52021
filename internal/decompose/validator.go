package decompose

import (
	"errors"
	"fmt"

	"github.com/hivemindlab/swarm/pkg/models"
)

// ErrInvalidPlan is returned when a plan fails validation. The plan's
// ValidationResult carries the individual errors.
var ErrInvalidPlan = errors.New("invalid swarm plan")

// BudgetOverrunTolerance is the fraction by which the summed worker
// budgets may exceed the supplied total before a warning is raised.
const BudgetOverrunTolerance = 0.10

// Validate checks a swarm plan against the structural rules: worker
// count within bounds, exactly one synthesizer, unique worker ids.
// Exceeding the time budget by more than the tolerance is a warning,
// not an error.
func Validate(plan *models.SwarmPlan, timeBudgetSeconds int) models.ValidationResult {
	result := models.ValidationResult{Valid: true}

	n := len(plan.Workers)
	if n < MinSwarmSize || n > MaxSwarmSize {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("swarm has %d workers, want between %d and %d", n, MinSwarmSize, MaxSwarmSize))
	}

	synthesizers := 0
	seen := make(map[string]bool, n)
	allocated := 0
	for _, w := range plan.Workers {
		if w.Role == models.RoleSynthesizer {
			synthesizers++
		}
		if seen[w.ID] {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate worker id %q", w.ID))
		}
		seen[w.ID] = true
		allocated += w.TimeBudgetSeconds
	}

	if synthesizers == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "plan has no synthesizer worker")
	} else if synthesizers > 1 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("plan has %d synthesizers, want exactly 1", synthesizers))
	}

	if timeBudgetSeconds > 0 {
		limit := float64(timeBudgetSeconds) * (1 + BudgetOverrunTolerance)
		if float64(allocated) > limit {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("allocated time %ds exceeds budget %ds by more than %.0f%%",
					allocated, timeBudgetSeconds, BudgetOverrunTolerance*100))
		}
	}

	return result
}
