package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hivemindlab/swarm/internal/config"
	"github.com/hivemindlab/swarm/internal/memory"
)

var (
	learnMinSuccesses int
	learnForce        bool
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Run a learning session over the reasoning bank",
	Long: `Run a learning session: distill recurring successful patterns into
category-level strategies, recompute pattern associations, and rebuild
the retrieval index.

Sessions normally trigger in the background after enough successful
executions. This command runs one on demand.

Examples:
  swarm learn                 # run if enough new successes accumulated
  swarm learn --force         # run regardless of the threshold
  swarm learn --min-successes 5`,
	RunE: runLearn,
}

func init() {
	learnCmd.Flags().IntVar(&learnMinSuccesses, "min-successes", 0, "Successes required since the last session (default from config)")
	learnCmd.Flags().BoolVar(&learnForce, "force", false, "Run even below the success threshold")
}

func runLearn(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	minSuccesses := learnMinSuccesses
	if minSuccesses == 0 {
		minSuccesses = cfg.Executor.LearnThreshold
	}

	bank, err := openBank(cfg)
	if err != nil {
		return err
	}
	defer bank.Close()

	report, err := bank.RunLearningSession(minSuccesses, learnForce)
	if err != nil {
		return fmt.Errorf("learning session: %w", err)
	}

	if report.Skipped {
		fmt.Printf("Skipped: fewer than %d successes since the last session (use --force)\n", minSuccesses)
		return nil
	}

	fmt.Println("Learning session complete:")
	fmt.Printf("  Distilled strategies: %d\n", report.Distillations)
	fmt.Printf("  Pattern associations: %d\n", report.Associations)
	fmt.Printf("  Indexed patterns:     %d\n", report.IndexedCount)
	return nil
}

// openBank opens and migrates the reasoning bank at the configured path.
func openBank(cfg *config.Config) (*memory.Bank, error) {
	path := cfg.Memory.DBPath
	if path == "" {
		path = memory.GlobalDBPath()
	}
	bank, err := memory.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reasoning bank: %w", err)
	}
	if err := bank.Migrate(); err != nil {
		bank.Close()
		return nil, fmt.Errorf("migrate reasoning bank: %w", err)
	}
	return bank, nil
}
