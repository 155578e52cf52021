package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivemindlab/swarm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify swarm configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/swarm/config.yaml
Project-specific overrides can be placed in .swarm.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orUnset(cfg.Anthropic.Model))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("runner.mode: %s\n", cfg.Runner.Mode)
	fmt.Printf("runner.binary: %s\n", cfg.Runner.Binary)
	fmt.Printf("executor.max_concurrent: %d\n", cfg.Executor.MaxConcurrent)
	fmt.Printf("executor.learn_threshold: %d\n", cfg.Executor.LearnThreshold)
	fmt.Printf("executor.default_depth: %d\n", cfg.Executor.DefaultDepth)
	fmt.Printf("executor.default_time_budget_minutes: %d\n", cfg.Executor.DefaultTimeBudget)
	fmt.Printf("sync.remote_url: %s\n", orUnset(cfg.Sync.RemoteURL))
	fmt.Printf("sync.tenant: %s\n", cfg.Sync.Tenant)
	fmt.Printf("sync.flush_interval: %s\n", cfg.Sync.FlushInterval)
	fmt.Printf("sync.retry_attempts: %d\n", cfg.Sync.RetryAttempts)
	fmt.Printf("sync.retry_base: %s\n", cfg.Sync.RetryBase)
	fmt.Printf("memory.db_path: %s\n", orUnset(cfg.Memory.DBPath))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orUnset(cfg.Anthropic.Model), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "runner.mode":
		return cfg.Runner.Mode, nil
	case "runner.binary":
		return cfg.Runner.Binary, nil
	case "executor.max_concurrent":
		return strconv.Itoa(cfg.Executor.MaxConcurrent), nil
	case "executor.learn_threshold":
		return strconv.Itoa(cfg.Executor.LearnThreshold), nil
	case "executor.default_depth":
		return strconv.Itoa(cfg.Executor.DefaultDepth), nil
	case "executor.default_time_budget_minutes":
		return strconv.Itoa(cfg.Executor.DefaultTimeBudget), nil
	case "sync.remote_url":
		return orUnset(cfg.Sync.RemoteURL), nil
	case "sync.tenant":
		return cfg.Sync.Tenant, nil
	case "sync.flush_interval":
		return cfg.Sync.FlushInterval.String(), nil
	case "sync.retry_attempts":
		return strconv.Itoa(cfg.Sync.RetryAttempts), nil
	case "sync.retry_base":
		return cfg.Sync.RetryBase.String(), nil
	case "memory.db_path":
		return orUnset(cfg.Memory.DBPath), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "runner.mode":
		if value != "subprocess" && value != "api" {
			return fmt.Errorf("invalid runner mode %q: must be subprocess or api", value)
		}
		cfg.Runner.Mode = value
	case "runner.binary":
		cfg.Runner.Binary = value
	case "executor.max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_concurrent: %w", err)
		}
		cfg.Executor.MaxConcurrent = n
	case "executor.learn_threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for learn_threshold: %w", err)
		}
		cfg.Executor.LearnThreshold = n
	case "executor.default_depth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for default_depth: %w", err)
		}
		cfg.Executor.DefaultDepth = n
	case "executor.default_time_budget_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for default_time_budget_minutes: %w", err)
		}
		cfg.Executor.DefaultTimeBudget = n
	case "sync.remote_url":
		cfg.Sync.RemoteURL = value
	case "sync.tenant":
		cfg.Sync.Tenant = value
	case "sync.flush_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for flush_interval: %w", err)
		}
		cfg.Sync.FlushInterval = d
	case "sync.retry_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for retry_attempts: %w", err)
		}
		cfg.Sync.RetryAttempts = n
	case "sync.retry_base":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for retry_base: %w", err)
		}
		cfg.Sync.RetryBase = d
	case "memory.db_path":
		cfg.Memory.DBPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
