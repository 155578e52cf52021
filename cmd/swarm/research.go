package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hivemindlab/swarm/internal/config"
	"github.com/hivemindlab/swarm/internal/decompose"
	"github.com/hivemindlab/swarm/internal/goal"
	"github.com/hivemindlab/swarm/internal/swarm"
	"github.com/hivemindlab/swarm/internal/syncer"
	"github.com/hivemindlab/swarm/pkg/models"
)

var (
	researchDepth         int
	researchTimeBudget    int
	researchSwarmSize     int
	researchMaxConcurrent int
	researchSingle        bool
	researchDumpPlan      bool
)

var researchCmd = &cobra.Command{
	Use:   "research <goal>",
	Short: "Run a research goal with a worker swarm",
	Long: `Run a research goal using parallel role-specialized workers.

The goal is split into independent sub-goals when possible, each
sub-goal is decomposed into a swarm plan, and the plan executes tier by
tier: researchers first, then verification, then a synthesizer that
merges every report into one. Worker outcomes are recorded in the
reasoning bank and improve later decompositions.

Steering a running swarm:
  touch .swarm/signals/pause    # hold scheduling between tiers
  rm .swarm/signals/pause       # resume
  touch .swarm/signals/kill     # stop the run

Use --dump-plan to inspect the plan without executing anything.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().IntVar(&researchDepth, "depth", 0, "Research depth 1-10 (default from config)")
	researchCmd.Flags().IntVar(&researchTimeBudget, "time-budget", 0, "Total time budget in minutes (default from config)")
	researchCmd.Flags().IntVar(&researchSwarmSize, "swarm-size", 0, "Base swarm size 3-7, used when depth is out of range")
	researchCmd.Flags().IntVar(&researchMaxConcurrent, "max-concurrent", 0, "Max workers running at once (default from config)")
	researchCmd.Flags().BoolVar(&researchSingle, "single-agent", false, "Skip goal splitting, research the goal as one task")
	researchCmd.Flags().BoolVar(&researchDumpPlan, "dump-plan", false, "Print the swarm plan as YAML and exit")
}

func runResearch(cmd *cobra.Command, args []string) error {
	goalText := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	depth := researchDepth
	if depth == 0 {
		depth = cfg.Executor.DefaultDepth
	}
	budgetMinutes := researchTimeBudget
	if budgetMinutes == 0 {
		budgetMinutes = cfg.Executor.DefaultTimeBudget
	}
	maxConcurrent := researchMaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = cfg.Executor.MaxConcurrent
	}

	agentRunner, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	bank, err := openBank(cfg)
	if err != nil {
		return err
	}
	defer bank.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt, shutting down...")
		cancel()
	}()

	splitter := goal.New(agentRunner)
	if researchSingle {
		splitter = goal.New(nil)
	}
	split := splitter.Split(ctx, goalText)
	if split.Mode == goal.ModeDecomposed {
		fmt.Printf("Split goal into %d sub-goals\n", len(split.SubGoals))
	}

	decomposer := decompose.New(bank)
	plans := make([]*models.SwarmPlan, 0, len(split.SubGoals))
	for _, sg := range split.SubGoals {
		plan, err := decomposer.Decompose(decompose.Request{
			Task:              sg.Task,
			Depth:             depth,
			TimeBudgetSeconds: budgetMinutes * 60,
			SizeHint:          researchSwarmSize,
			Complexity:        sg.Complexity,
		})
		if err != nil {
			return fmt.Errorf("decompose %q: %w", sg.Task, err)
		}
		plans = append(plans, plan)
	}

	if researchDumpPlan {
		data, err := yaml.Marshal(plans)
		if err != nil {
			return fmt.Errorf("marshal plans: %w", err)
		}
		fmt.Print(string(data))
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	jobStore, err := syncer.OpenJobStore(syncer.JobDBPath(cwd))
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer jobStore.Close()

	var remote syncer.RemoteStore
	if cfg.Sync.RemoteURL != "" {
		remote = syncer.NewHTTPRemote(cfg.Sync.RemoteURL, 0)
	}
	jobSync := syncer.New(jobStore, remote, syncer.Config{
		Tenant:            cfg.Sync.Tenant,
		MinUpdateInterval: cfg.Sync.MinUpdateInterval,
		FlushInterval:     cfg.Sync.FlushInterval,
		HealthInterval:    cfg.Sync.HealthInterval,
		RetryAttempts:     cfg.Sync.RetryAttempts,
		RetryBase:         cfg.Sync.RetryBase,
	})
	jobSync.Start()
	defer jobSync.Stop()
	if jobSync.LocalOnly() {
		fmt.Println("No remote configured, tracking jobs locally only")
	}

	signals, err := swarm.NewSignalManager(cwd)
	if err != nil {
		return fmt.Errorf("create signal manager: %w", err)
	}
	defer signals.Close()
	signals.ClearSignals()

	executor := swarm.New(agentRunner,
		swarm.WithMemory(bank),
		swarm.WithProgress(jobSync),
		swarm.WithSignals(signals),
		swarm.WithMaxConcurrent(maxConcurrent),
		swarm.WithLearnThreshold(cfg.Executor.LearnThreshold),
	)

	heading := color.New(color.FgCyan, color.Bold)
	succeedC := color.New(color.FgGreen)
	failC := color.New(color.FgRed)

	failed := 0
	for i, plan := range plans {
		job, err := jobSync.CreateJob("swarm", plan.Task)
		if err != nil {
			return fmt.Errorf("create job: %w", err)
		}

		heading.Printf("\n[%d/%d] %s\n", i+1, len(plans), plan.Task)
		fmt.Printf("  Job: %s  Workers: %d  Depth: %d\n", job.ID, len(plan.Workers), plan.Depth)

		outcome, err := executor.Execute(ctx, job.ID, plan)
		if errors.Is(err, swarm.ErrKilled) {
			jobSync.MarkComplete(job.ID, false, "killed by operator signal")
			failC.Println("  Run killed by operator signal")
			failed += len(plans) - i
			break
		}
		if err != nil {
			jobSync.MarkComplete(job.ID, false, err.Error())
			failC.Printf("  Execution failed: %v\n", err)
			failed++
			continue
		}

		if err := jobSync.MarkComplete(job.ID, outcome.Success, outcome.Synthesis); err != nil {
			fmt.Printf("Warning: recording completion failed: %v\n", err)
		}

		if outcome.Success {
			succeedC.Printf("  Done: %d/%d workers succeeded\n",
				outcome.SuccessfulCount, len(outcome.Results))
		} else {
			failC.Printf("  Failed: %d/%d workers succeeded\n",
				outcome.SuccessfulCount, len(outcome.Results))
			failed++
		}
		if outcome.Synthesis != "" {
			fmt.Println()
			fmt.Println(outcome.Synthesis)
		}
	}

	executor.WaitLearning()

	if m := jobSync.GetMetrics(); m.Degraded {
		fmt.Println("\nWarning: remote sync degraded, progress kept locally")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d research goals failed", failed, len(plans))
	}
	return nil
}
