// Package runner invokes agent processes that turn a worker prompt into
// a text research report. Implementations cover a claude CLI subprocess,
// the Anthropic API, and a scripted stub for tests.
package runner

import (
	"context"
	"regexp"
	"strconv"
)

// Request is one unit of work handed to an agent.
type Request struct {
	// PromptText is the full worker prompt.
	PromptText string
	// TimeBudgetSeconds bounds the agent's wall-clock time. Zero means
	// no budget is enforced by the runner.
	TimeBudgetSeconds int
}

// Result is the agent's report. A non-zero ExitCode marks a failed run
// without being an invocation error.
type Result struct {
	ExitCode int
	Output   string
	// GroundingScore is the agent's declared confidence in [0,100],
	// nil when the agent did not declare one.
	GroundingScore *int
	// TokensUsed is the reported or estimated token count.
	TokensUsed int
}

// AgentRunner executes one request. Implementations must honor context
// cancellation and report agent failures through Result.ExitCode rather
// than an error; errors are reserved for invocation problems.
type AgentRunner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// groundingRe matches a declared grounding score like "Grounding: 85/100".
var groundingRe = regexp.MustCompile(`(?i)grounding(?:\s+score)?\s*[:=]\s*(\d{1,3})\s*/\s*100`)

// ParseGroundingScore extracts a declared grounding score from agent
// output. The second return is false when no valid declaration exists.
func ParseGroundingScore(output string) (int, bool) {
	m := groundingRe.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

// estimateTokens approximates token usage from output length.
func estimateTokens(output string) int {
	return len(output) / 4
}
