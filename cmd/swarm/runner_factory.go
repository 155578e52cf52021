package main

import (
	"fmt"

	"github.com/hivemindlab/swarm/internal/config"
	"github.com/hivemindlab/swarm/internal/runner"
)

// buildRunner creates the agent runner selected by the config: the
// Claude CLI in subprocess mode, direct API calls otherwise.
func buildRunner(cfg *config.Config) (runner.AgentRunner, error) {
	switch cfg.Runner.Mode {
	case "", "subprocess":
		r := runner.NewSubprocessRunner()
		if cfg.Runner.Binary != "" {
			r.Binary = cfg.Runner.Binary
		}
		if err := CheckAgentBinary(r.Binary); err != nil {
			return nil, err
		}
		r.Model = cfg.Anthropic.Model
		return r, nil

	case "api":
		r, err := runner.NewAPIRunner(runner.APIConfig{
			Model:      cfg.Anthropic.Model,
			APIKey:     cfg.Anthropic.APIKey,
			UseBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:  cfg.Anthropic.AWSRegion,
			AWSProfile: cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, fmt.Errorf("create API runner: %w", err)
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unknown runner mode %q: must be subprocess or api", cfg.Runner.Mode)
	}
}
