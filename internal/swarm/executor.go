// Package swarm executes a validated plan tier by tier under a bounded
// concurrency budget, tolerating partial failures, and records every
// outcome into the reasoning memory.
package swarm

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hivemindlab/swarm/internal/memory"
	"github.com/hivemindlab/swarm/internal/runner"
	"github.com/hivemindlab/swarm/pkg/models"
)

const (
	// DefaultMaxConcurrent bounds parallel workers within a tier.
	DefaultMaxConcurrent = 3
	// DefaultLearnThreshold is the successful-pattern count that
	// triggers a learning session after a run.
	DefaultLearnThreshold = 2

	// synthesisInputLimit bounds each contribution embedded in the
	// synthesizer prompt.
	synthesisInputLimit = 4000

	// pausePollInterval is how often a paused run rechecks its signals.
	pausePollInterval = 500 * time.Millisecond
)

// ErrKilled is returned when a kill signal stops the run before all
// tiers executed.
var ErrKilled = fmt.Errorf("swarm run stopped by kill signal")

// PatternRecorder is the memory surface the executor writes to.
// *memory.Bank satisfies it.
type PatternRecorder interface {
	RecordExecution(jobID, task string, res models.ExecutionResult, depth int) (*models.Pattern, *models.LearningEpisode, error)
	RunLearningSession(minSuccesses int, force bool) (*memory.SessionReport, error)
}

// ProgressSink receives job progress updates during a run.
type ProgressSink interface {
	UpdateProgress(jobID string, progress float64, message string) error
}

// Executor runs swarm plans.
type Executor struct {
	runner         runner.AgentRunner
	memory         PatternRecorder
	progress       ProgressSink
	signals        *SignalManager
	maxConcurrent  int
	learnThreshold int

	learnWG sync.WaitGroup
}

// Option configures an Executor.
type Option func(*Executor)

// WithMemory attaches a pattern recorder; without one, outcomes are not
// remembered.
func WithMemory(m PatternRecorder) Option {
	return func(e *Executor) { e.memory = m }
}

// WithProgress attaches a progress sink.
func WithProgress(p ProgressSink) Option {
	return func(e *Executor) { e.progress = p }
}

// WithSignals attaches a signal manager checked between tiers.
func WithSignals(s *SignalManager) Option {
	return func(e *Executor) { e.signals = s }
}

// WithMaxConcurrent sets the per-tier concurrency bound.
func WithMaxConcurrent(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxConcurrent = n
		}
	}
}

// WithLearnThreshold sets the successful-pattern count that triggers a
// post-run learning session.
func WithLearnThreshold(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.learnThreshold = n
		}
	}
}

// New creates an Executor around an agent runner.
func New(r runner.AgentRunner, opts ...Option) *Executor {
	e := &Executor{
		runner:         r,
		maxConcurrent:  DefaultMaxConcurrent,
		learnThreshold: DefaultLearnThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the plan and returns the aggregate outcome. Worker
// failures never abort siblings or later tiers; the synthesis stage
// consumes whatever outputs exist and notes omissions. The run is
// successful iff at least one non-synthesizer worker and the
// synthesizer both succeeded.
func (e *Executor) Execute(ctx context.Context, jobID string, plan *models.SwarmPlan) (*models.SwarmOutcome, error) {
	if !plan.Validation.Valid {
		return nil, fmt.Errorf("plan failed validation: %s", strings.Join(plan.Validation.Errors, "; "))
	}

	byTier := make(map[int][]models.WorkerSpec)
	for _, w := range plan.Workers {
		byTier[w.PriorityTier] = append(byTier[w.PriorityTier], w)
	}
	tiers := plan.Tiers()
	total := len(plan.Workers)

	outcome := &models.SwarmOutcome{JobID: jobID}
	var mu sync.Mutex
	completed := 0
	killed := false

	for _, tier := range tiers {
		if err := e.waitForSignals(ctx); err != nil {
			log.Printf("[swarm] job %s: %v, skipping remaining tiers", jobID, err)
			killed = true
			break
		}

		specs := append([]models.WorkerSpec(nil), byTier[tier]...)
		prior := append([]models.ExecutionResult(nil), outcome.Results...)
		for i := range specs {
			if specs[i].Role == models.RoleSynthesizer {
				// Synthesis consumes all earlier outputs.
				specs[i].PromptText = buildSynthesisPrompt(specs[i].PromptText, prior)
			}
		}

		sem := make(chan struct{}, minInt(e.maxConcurrent, len(specs)))
		var wg sync.WaitGroup

		for _, spec := range specs {
			spec := spec
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				res := e.runWorker(ctx, spec)
				e.record(jobID, plan, res)

				mu.Lock()
				outcome.Results = append(outcome.Results, res)
				completed++
				progress := float64(completed) / float64(total) * 100
				mu.Unlock()

				e.report(jobID, progress, fmt.Sprintf("%s finished (success=%v)", res.Role, res.Success))
			}()
		}
		wg.Wait()
	}

	sort.Slice(outcome.Results, func(i, j int) bool {
		return outcome.Results[i].WorkerID < outcome.Results[j].WorkerID
	})

	var synthSuccess, researchSuccess bool
	for _, res := range outcome.Results {
		if res.Success {
			outcome.SuccessfulCount++
			if res.Role == models.RoleSynthesizer {
				synthSuccess = true
			} else {
				researchSuccess = true
			}
		} else {
			outcome.FailedCount++
		}
		if res.Role == models.RoleSynthesizer {
			outcome.Synthesis = res.Output
		}
	}
	outcome.Success = synthSuccess && researchSuccess

	e.triggerLearning(jobID)

	if killed {
		return outcome, ErrKilled
	}
	return outcome, nil
}

// runWorker invokes the agent runner for one spec. Invocation errors
// and non-zero exits both become failed results.
func (e *Executor) runWorker(ctx context.Context, spec models.WorkerSpec) models.ExecutionResult {
	start := time.Now()
	res, err := e.runner.Run(ctx, runner.Request{
		PromptText:        spec.PromptText,
		TimeBudgetSeconds: spec.TimeBudgetSeconds,
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		log.Printf("[swarm] worker %s (%s) invocation failed: %v", spec.ID, spec.Role, err)
		return models.ExecutionResult{
			WorkerID:        spec.ID,
			Role:            spec.Role,
			Success:         false,
			ExitCode:        -1,
			DurationSeconds: duration,
			Error:           err.Error(),
		}
	}

	return models.ExecutionResult{
		WorkerID:        spec.ID,
		Role:            spec.Role,
		Success:         res.ExitCode == 0,
		ExitCode:        res.ExitCode,
		Output:          res.Output,
		DurationSeconds: duration,
		TokensEstimate:  res.TokensUsed,
		GroundingScore:  res.GroundingScore,
	}
}

// record stores the result as a pattern and episode. Memory failures
// are logged and swallowed so they never affect the run.
func (e *Executor) record(jobID string, plan *models.SwarmPlan, res models.ExecutionResult) {
	if e.memory == nil {
		return
	}
	if _, _, err := e.memory.RecordExecution(jobID, plan.Task, res, plan.Depth); err != nil {
		log.Printf("[swarm] record pattern for worker %s: %v", res.WorkerID, err)
	}
}

func (e *Executor) report(jobID string, progress float64, message string) {
	if e.progress == nil {
		return
	}
	if err := e.progress.UpdateProgress(jobID, progress, message); err != nil {
		log.Printf("[swarm] progress update for job %s: %v", jobID, err)
	}
}

// waitForSignals blocks while a pause signal is active and returns
// ErrKilled when a kill signal arrives.
func (e *Executor) waitForSignals(ctx context.Context) error {
	if e.signals == nil {
		return ctx.Err()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.signals.ShouldKill() {
			return ErrKilled
		}
		if !e.signals.ShouldPause() {
			return nil
		}
		time.Sleep(pausePollInterval)
	}
}

// triggerLearning starts an asynchronous learning session when enough
// successes accumulated. Session failures never affect the caller.
func (e *Executor) triggerLearning(jobID string) {
	if e.memory == nil {
		return
	}
	e.learnWG.Add(1)
	go func() {
		defer e.learnWG.Done()
		report, err := e.memory.RunLearningSession(e.learnThreshold, false)
		if err != nil {
			log.Printf("[swarm] learning session after job %s: %v", jobID, err)
			return
		}
		if !report.Skipped {
			log.Printf("[swarm] learning session after job %s: %d distillations, %d associations",
				jobID, report.Distillations, report.Associations)
		}
	}()
}

// WaitLearning blocks until any in-flight learning session finishes.
func (e *Executor) WaitLearning() {
	e.learnWG.Wait()
}

// buildSynthesisPrompt appends prior worker outputs to the synthesizer
// prompt, noting explicitly which workers produced nothing usable.
func buildSynthesisPrompt(base string, results []models.ExecutionResult) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n## Prior worker outputs\n")

	var omitted []string
	for _, res := range results {
		if !res.Success || strings.TrimSpace(res.Output) == "" {
			omitted = append(omitted, string(res.Role))
			continue
		}
		output := res.Output
		if len(output) > synthesisInputLimit {
			cut := synthesisInputLimit
			for cut > 0 && !utf8.RuneStart(output[cut]) {
				cut--
			}
			output = output[:cut]
		}
		fmt.Fprintf(&b, "\n### %s\n%s\n", res.Role, output)
	}

	if len(omitted) > 0 {
		fmt.Fprintf(&b, "\nNote: no usable output from: %s. Synthesize from the available material and state these gaps in the report.\n",
			strings.Join(omitted, ", "))
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
