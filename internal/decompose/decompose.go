// Package decompose turns a research task into a validated swarm plan:
// a sized, role-assigned, priority-tiered set of worker specs.
package decompose

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hivemindlab/swarm/pkg/models"
)

// Swarm size bounds.
const (
	MinSwarmSize = 3
	MaxSwarmSize = 7
)

// MemoryConsulter provides access to prior similar patterns and
// distilled category strategies. The reasoning bank implements it; a
// nil consulter disables consultation.
type MemoryConsulter interface {
	// SimilarPatterns returns up to k patterns similar to the task text,
	// best match first.
	SimilarPatterns(task string, k int) ([]*models.Pattern, error)
	// StrategyFor returns the distilled strategy for the task's
	// category, or nil when none exists.
	StrategyFor(task string) (*models.MemoryDistillation, error)
}

// Request describes one decomposition.
type Request struct {
	// Task is the research task text.
	Task string
	// Depth is the requested research depth (1-10).
	Depth int
	// TimeBudgetSeconds is the total wall-clock budget for the swarm.
	TimeBudgetSeconds int
	// SizeHint is the base swarm size (3-7) used when Depth is outside
	// 1-10; the depth-derived size otherwise wins.
	SizeHint int
	// Complexity is an optional label from upstream goal splitting.
	Complexity models.Complexity
}

// Decomposer produces swarm plans. It is safe for concurrent use.
type Decomposer struct {
	memory MemoryConsulter
}

// New creates a Decomposer. memory may be nil.
func New(memory MemoryConsulter) *Decomposer {
	return &Decomposer{memory: memory}
}

// SwarmSize applies the deterministic sizing policy: depth 1-3 yields 3
// workers, 4-6 yields 5, 7-10 yields 7; the complexity label shifts the
// count within [MinSwarmSize, MaxSwarmSize].
func SwarmSize(depth, sizeHint int, complexity models.Complexity) int {
	size := sizeHint
	switch {
	case depth >= 1 && depth <= 3:
		size = 3
	case depth >= 4 && depth <= 6:
		size = 5
	case depth >= 7 && depth <= 10:
		size = 7
	}
	if size < MinSwarmSize || size > MaxSwarmSize {
		size = 5
	}

	switch complexity {
	case models.ComplexityLow:
		size -= 2
	case models.ComplexityHigh:
		size++
	case models.ComplexityVeryHigh:
		size = MaxSwarmSize
	}

	if size < MinSwarmSize {
		size = MinSwarmSize
	}
	if size > MaxSwarmSize {
		size = MaxSwarmSize
	}
	return size
}

// Decompose builds and validates a swarm plan for the request. The plan
// carries its validation result; ErrInvalidPlan is returned when the
// result has errors, before any execution can start.
func (d *Decomposer) Decompose(req Request) (*models.SwarmPlan, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, fmt.Errorf("decompose: task text is empty")
	}

	size := SwarmSize(req.Depth, req.SizeHint, req.Complexity)
	roles, err := rolesForSize(size)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}
	shares := timeShares(roles)

	insights := d.consultMemory(req.Task)

	workers := make([]models.WorkerSpec, 0, len(roles))
	for _, role := range roles {
		prompt := fmt.Sprintf(rolePromptTemplates[role], req.Task, req.Depth)
		if insights != "" && role != models.RoleSynthesizer {
			prompt += "\n\nInsights from prior similar work:\n" + insights
		}
		workers = append(workers, models.WorkerSpec{
			ID:                fmt.Sprintf("%s-%s", role, uuid.New().String()[:8]),
			Role:              role,
			PriorityTier:      roleTiers[role],
			TimeBudgetSeconds: int(float64(req.TimeBudgetSeconds) * shares[role]),
			ResearchDepth:     req.Depth,
			PromptText:        prompt,
		})
	}

	// Stable order: tier ascending, original role order within a tier.
	sort.SliceStable(workers, func(i, j int) bool {
		return workers[i].PriorityTier < workers[j].PriorityTier
	})

	plan := &models.SwarmPlan{
		Task:      req.Task,
		Depth:     req.Depth,
		Workers:   workers,
		CreatedAt: time.Now(),
	}
	plan.Validation = Validate(plan, req.TimeBudgetSeconds)
	if !plan.Validation.Valid {
		return plan, fmt.Errorf("decompose: %w: %s", ErrInvalidPlan, strings.Join(plan.Validation.Errors, "; "))
	}
	return plan, nil
}

// consultMemory retrieves the category strategy and prior similar
// patterns and condenses them. Consultation is best-effort; failures
// are logged and ignored.
func (d *Decomposer) consultMemory(task string) string {
	if d.memory == nil {
		return ""
	}

	var lines []string
	strategy, err := d.memory.StrategyFor(task)
	if err != nil {
		log.Printf("[decompose] strategy lookup failed: %v", err)
	} else if strategy != nil {
		lines = append(lines, fmt.Sprintf("- Strategy (%s, confidence %.2f): %s",
			strategy.SourceCategory, strategy.ConfidenceScore, strategy.BestPractices))
	}

	patterns, err := d.memory.SimilarPatterns(task, 3)
	if err != nil {
		log.Printf("[decompose] memory consultation failed: %v", err)
		return strings.Join(lines, "\n")
	}
	for _, p := range patterns {
		if p.OutputSummary == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- (%s, reward %.2f) %s", p.Role, p.Reward, p.OutputSummary))
	}
	return strings.Join(lines, "\n")
}
