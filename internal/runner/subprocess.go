package runner

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// SubprocessRunner shells out to the claude CLI in print mode. The CLI
// enforces its own tool permissions; the runner only bounds wall-clock
// time and captures combined output.
type SubprocessRunner struct {
	// Binary is the executable name, "claude" by default.
	Binary string
	// WorkDir is the working directory for the subprocess. Empty means
	// inherit the parent's.
	WorkDir string
	// Model optionally overrides the CLI's default model.
	Model string
}

// NewSubprocessRunner creates a runner invoking the claude CLI.
func NewSubprocessRunner() *SubprocessRunner {
	return &SubprocessRunner{Binary: "claude"}
}

// Run executes the prompt in a subprocess. A non-zero exit is reported
// through the result, not as an error.
func (r *SubprocessRunner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.TimeBudgetSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeBudgetSeconds)*time.Second)
		defer cancel()
	}

	args := []string{"--print"}
	if r.Model != "" {
		args = append(args, "--model", r.Model)
	}
	args = append(args, "-p", req.PromptText)

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return r.buildResult(exitErr.ExitCode(), output), nil
		}
		if ctx.Err() != nil {
			// Budget exhausted: the kill surfaces as a failed run.
			return r.buildResult(-1, output), nil
		}
		return nil, fmt.Errorf("invoke %s: %w", r.Binary, err)
	}
	return r.buildResult(0, output), nil
}

func (r *SubprocessRunner) buildResult(exitCode int, output []byte) *Result {
	res := &Result{
		ExitCode:   exitCode,
		Output:     string(output),
		TokensUsed: estimateTokens(string(output)),
	}
	if score, ok := ParseGroundingScore(res.Output); ok {
		res.GroundingScore = &score
	}
	return res
}

var _ AgentRunner = (*SubprocessRunner)(nil)
