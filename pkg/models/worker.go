// Package models defines the shared data types for swarm planning,
// execution, and the reasoning memory bank.
package models

import "time"

// Role is the capability tag assigned to a swarm worker.
type Role string

const (
	// RoleExplorer performs broad initial research across the task surface.
	RoleExplorer Role = "explorer"
	// RoleDepthAnalyst digs into the most promising areas in depth.
	RoleDepthAnalyst Role = "depth-analyst"
	// RoleVerifier cross-checks claims produced by the primary researchers.
	RoleVerifier Role = "verifier"
	// RoleTrendAnalyst identifies temporal trends and trajectories.
	RoleTrendAnalyst Role = "trend-analyst"
	// RoleDomainExpert contributes specialized domain knowledge.
	RoleDomainExpert Role = "domain-expert"
	// RoleCriticalReviewer challenges assumptions and surfaces weaknesses.
	RoleCriticalReviewer Role = "critical-reviewer"
	// RoleSynthesizer merges all prior outputs into the final report.
	RoleSynthesizer Role = "synthesizer"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleExplorer, RoleDepthAnalyst, RoleVerifier, RoleTrendAnalyst,
		RoleDomainExpert, RoleCriticalReviewer, RoleSynthesizer:
		return true
	default:
		return false
	}
}

// Complexity is an optional label supplied by upstream goal splitting.
type Complexity string

const (
	// ComplexityLow shrinks the swarm below its depth-derived size.
	ComplexityLow Complexity = "low"
	// ComplexityMedium leaves the depth-derived size unchanged.
	ComplexityMedium Complexity = "medium"
	// ComplexityHigh grows the swarm by one worker.
	ComplexityHigh Complexity = "high"
	// ComplexityVeryHigh forces the maximum swarm size.
	ComplexityVeryHigh Complexity = "very-high"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh, ComplexityVeryHigh:
		return true
	default:
		return false
	}
}

// WorkerSpec is a single sub-task assigned to one role within a swarm.
// It is immutable once created by the decomposer.
type WorkerSpec struct {
	// ID is the unique identifier for this worker.
	ID string `json:"id" yaml:"id"`
	// Role is the capability tag for this worker.
	Role Role `json:"role" yaml:"role"`
	// PriorityTier is the execution phase; lower tiers run first.
	PriorityTier int `json:"priority_tier" yaml:"priority_tier"`
	// TimeBudgetSeconds is the wall-clock budget allocated to this worker.
	TimeBudgetSeconds int `json:"time_budget_seconds" yaml:"time_budget_seconds"`
	// ResearchDepth is the requested depth on a 1-10 scale.
	ResearchDepth int `json:"research_depth" yaml:"research_depth"`
	// PromptText is the full prompt handed to the agent runner.
	PromptText string `json:"prompt_text" yaml:"prompt_text"`
}

// ValidationResult holds the outcome of validating a swarm plan.
type ValidationResult struct {
	// Valid is true when the plan has no fatal errors.
	Valid bool `json:"valid" yaml:"valid"`
	// Errors lists fatal problems; a plan with errors must not execute.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	// Warnings lists non-fatal problems worth surfacing to the caller.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SwarmPlan is the ordered set of worker specs produced for one task.
// It is created once per task and never mutated after validation.
type SwarmPlan struct {
	// Task is the task text the plan was derived from.
	Task string `json:"task" yaml:"task"`
	// Depth is the requested research depth (1-10).
	Depth int `json:"depth" yaml:"depth"`
	// Workers are the specs in priority-tier order.
	Workers []WorkerSpec `json:"workers" yaml:"workers"`
	// Validation is the result of plan validation.
	Validation ValidationResult `json:"validation" yaml:"validation"`
	// CreatedAt is when the plan was produced.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Synthesizer returns the plan's synthesizer spec, or nil if absent.
func (p *SwarmPlan) Synthesizer() *WorkerSpec {
	for i := range p.Workers {
		if p.Workers[i].Role == RoleSynthesizer {
			return &p.Workers[i]
		}
	}
	return nil
}

// Tiers returns the distinct priority tiers present in the plan, ascending.
func (p *SwarmPlan) Tiers() []int {
	seen := make(map[int]bool)
	var tiers []int
	for _, w := range p.Workers {
		if !seen[w.PriorityTier] {
			seen[w.PriorityTier] = true
			tiers = append(tiers, w.PriorityTier)
		}
	}
	for i := 0; i < len(tiers); i++ {
		for j := i + 1; j < len(tiers); j++ {
			if tiers[j] < tiers[i] {
				tiers[i], tiers[j] = tiers[j], tiers[i]
			}
		}
	}
	return tiers
}

// ExecutionResult records the outcome of running one worker spec.
// It is produced exactly once per worker by the executor.
type ExecutionResult struct {
	// WorkerID is the ID of the worker spec that was executed.
	WorkerID string `json:"worker_id"`
	// Role is the role of the executed worker.
	Role Role `json:"role"`
	// Success is true when the runner exited cleanly.
	Success bool `json:"success"`
	// ExitCode is the runner's exit code (-1 on invocation failure).
	ExitCode int `json:"exit_code"`
	// Output is the text report produced by the worker.
	Output string `json:"output"`
	// DurationSeconds is the measured wall-clock duration.
	DurationSeconds float64 `json:"duration_seconds"`
	// TokensEstimate is the approximate token count of the output.
	TokensEstimate int `json:"tokens_estimate"`
	// GroundingScore is the runner's declared confidence (0-100), if any.
	GroundingScore *int `json:"grounding_score,omitempty"`
	// Error holds the invocation error message when Success is false.
	Error string `json:"error,omitempty"`
}

// SwarmOutcome aggregates per-worker results for one swarm run.
type SwarmOutcome struct {
	// JobID is the job the swarm ran under.
	JobID string `json:"job_id"`
	// Results holds one entry per executed worker.
	Results []ExecutionResult `json:"results"`
	// SuccessfulCount is the number of workers that succeeded.
	SuccessfulCount int `json:"successful_count"`
	// FailedCount is the number of workers that failed.
	FailedCount int `json:"failed_count"`
	// Success is true when at least one non-synthesizer worker and the
	// synthesizer both succeeded.
	Success bool `json:"success"`
	// Synthesis is the final synthesized report text.
	Synthesis string `json:"synthesis,omitempty"`
}
