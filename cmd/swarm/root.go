package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// CheckAgentBinary verifies that the agent CLI is available in PATH.
// Only subprocess mode needs it.
func CheckAgentBinary(binary string) error {
	_, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("agent CLI %q not found in PATH\n\n"+
			"Swarm drives research workers through the Claude Code CLI in subprocess mode.\n\n"+
			"Install it with:\n"+
			"  npm install -g @anthropic-ai/claude-code\n\n"+
			"Or switch to direct API calls with:\n"+
			"  swarm config runner.mode api", binary)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Swarm research orchestrator",
	Long: `Swarm decomposes a research task into role-specialized workers,
runs them in parallel waves, and synthesizes their findings into one
report.

Every execution feeds a local reasoning bank: worker outcomes are
scored, stored as patterns, and retrieved on later runs to steer
decomposition. Job progress is tracked locally and mirrored to a
remote collaborator when one is configured.

Core capabilities:
- Sizes and plans a swarm from task depth and past patterns
- Executes workers tier by tier with bounded concurrency
- Learns from successes and failures across runs
- Syncs progress with retry and graceful local-only degradation`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
