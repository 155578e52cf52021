package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivemindlab/swarm/internal/config"
	"github.com/hivemindlab/swarm/internal/memory"
	"github.com/hivemindlab/swarm/internal/syncer"
)

var statsSearchQuery string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reasoning bank contents and recent jobs",
	Long: `Display the state of the reasoning bank and recent job history.

Shows:
  - Stored patterns, episodes, and distilled strategies
  - Whether the retrieval index is built
  - Recent jobs with status and duration

Use --search to find stored patterns by keyword.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsSearchQuery, "search", "s", "", "Search patterns by keyword")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bank, err := openBank(cfg)
	if err != nil {
		return err
	}
	defer bank.Close()

	if statsSearchQuery != "" {
		return searchPatterns(bank, statsSearchQuery)
	}

	stats, err := bank.Stats()
	if err != nil {
		return fmt.Errorf("read bank stats: %w", err)
	}

	fmt.Println("Reasoning bank:")
	fmt.Printf("  Patterns:     %d (%d successful)\n", stats.Patterns, stats.SuccessfulPatterns)
	fmt.Printf("  Episodes:     %d\n", stats.Episodes)
	fmt.Printf("  Embeddings:   %d\n", stats.Embeddings)
	fmt.Printf("  Strategies:   %d\n", stats.Distillations)
	fmt.Printf("  Associations: %d\n", stats.Associations)
	if stats.IndexReady {
		fmt.Println("  Index:        ready")
	} else {
		fmt.Println("  Index:        linear scan (corpus too small or not built)")
	}

	return displayRecentJobs()
}

func searchPatterns(bank *memory.Bank, query string) error {
	patterns, err := bank.SearchPatternsKeyword(query, 10)
	if err != nil {
		return fmt.Errorf("search patterns: %w", err)
	}
	if len(patterns) == 0 {
		fmt.Println("No patterns found matching query.")
		return nil
	}

	fmt.Printf("Found %d pattern(s):\n\n", len(patterns))
	for _, p := range patterns {
		verdict := "failure"
		if p.Success {
			verdict = "success"
		}
		fmt.Printf("[%s] %s (%s, reward %.2f)\n", p.ID, truncate(p.Task, 60), verdict, p.Reward)
		fmt.Printf("         %s\n\n", truncate(p.OutputSummary, 70))
	}
	return nil
}

func displayRecentJobs() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dbPath := syncer.JobDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil
	}

	store, err := syncer.OpenJobStore(dbPath)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	jobs, err := store.ListJobs(5)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	fmt.Println("\nRecent jobs:")
	for _, j := range jobs {
		line := fmt.Sprintf("  %s: %s [%s]", j.ID, truncate(j.Task, 50), j.Status)
		if j.Terminal() {
			line += fmt.Sprintf(" in %s", formatDuration(time.Duration(j.DurationSeconds*float64(time.Second))))
		} else {
			line += fmt.Sprintf(" %.0f%%", j.Progress)
		}
		fmt.Println(line)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if m > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

// truncate shortens a string to max length, adding ellipsis if needed.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
