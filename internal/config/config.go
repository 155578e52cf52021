// Package config handles configuration loading for swarm. It supports
// XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for swarm.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Memory    MemoryConfig    `mapstructure:"memory"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// RunnerConfig selects and tunes the agent runner.
type RunnerConfig struct {
	// Mode is "subprocess" (claude CLI) or "api".
	Mode string `mapstructure:"mode"`
	// Binary is the CLI executable for subprocess mode.
	Binary string `mapstructure:"binary"`
}

// ExecutorConfig holds swarm execution settings.
type ExecutorConfig struct {
	MaxConcurrent     int `mapstructure:"max_concurrent"`
	LearnThreshold    int `mapstructure:"learn_threshold"`
	DefaultDepth      int `mapstructure:"default_depth"`
	DefaultTimeBudget int `mapstructure:"default_time_budget_minutes"`
}

// SyncConfig holds sync layer settings. An empty RemoteURL selects
// local-only operation.
type SyncConfig struct {
	RemoteURL         string        `mapstructure:"remote_url"`
	Tenant            string        `mapstructure:"tenant"`
	MinUpdateInterval time.Duration `mapstructure:"min_update_interval"`
	FlushInterval     time.Duration `mapstructure:"flush_interval"`
	HealthInterval    time.Duration `mapstructure:"health_interval"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryBase         time.Duration `mapstructure:"retry_base"`
}

// MemoryConfig holds reasoning bank settings.
type MemoryConfig struct {
	// DBPath overrides the default bank location when non-empty.
	DBPath string `mapstructure:"db_path"`
}

// Load loads configuration with precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, SWARM_*)
// 2. Project config (.swarm.yaml in current directory or a parent)
// 3. User config (~/.config/swarm/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "SWARM_MODEL")
	v.BindEnv("runner.mode", "SWARM_RUNNER_MODE")
	v.BindEnv("sync.remote_url", "SWARM_REMOTE_URL")
	v.BindEnv("sync.tenant", "SWARM_TENANT")
	v.BindEnv("memory.db_path", "SWARM_MEMORY_DB")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("runner.mode", "subprocess")
	v.SetDefault("runner.binary", "claude")

	v.SetDefault("executor.max_concurrent", 3)
	v.SetDefault("executor.learn_threshold", 2)
	v.SetDefault("executor.default_depth", 5)
	v.SetDefault("executor.default_time_budget_minutes", 60)

	v.SetDefault("sync.remote_url", "")
	v.SetDefault("sync.tenant", "default")
	v.SetDefault("sync.min_update_interval", "1s")
	v.SetDefault("sync.flush_interval", "2s")
	v.SetDefault("sync.health_interval", "30s")
	v.SetDefault("sync.retry_attempts", 3)
	v.SetDefault("sync.retry_base", "2s")

	v.SetDefault("memory.db_path", "")
}

// getUserConfigDir returns the XDG config directory for swarm.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "swarm")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "swarm")
	}
	return filepath.Join(home, ".config", "swarm")
}

// findProjectConfig searches for .swarm.yaml in the current directory
// and its parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ".swarm.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// Save writes the config to the user config file, creating the
// directory if needed.
func Save(cfg *Config) error {
	path := GetUserConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out := map[string]any{
		"anthropic": map[string]any{
			"api_key":     cfg.Anthropic.APIKey,
			"model":       cfg.Anthropic.Model,
			"use_bedrock": cfg.Anthropic.UseBedrock,
			"aws_region":  cfg.Anthropic.AWSRegion,
			"aws_profile": cfg.Anthropic.AWSProfile,
		},
		"runner": map[string]any{
			"mode":   cfg.Runner.Mode,
			"binary": cfg.Runner.Binary,
		},
		"executor": map[string]any{
			"max_concurrent":              cfg.Executor.MaxConcurrent,
			"learn_threshold":             cfg.Executor.LearnThreshold,
			"default_depth":               cfg.Executor.DefaultDepth,
			"default_time_budget_minutes": cfg.Executor.DefaultTimeBudget,
		},
		"sync": map[string]any{
			"remote_url":          cfg.Sync.RemoteURL,
			"tenant":              cfg.Sync.Tenant,
			"min_update_interval": cfg.Sync.MinUpdateInterval.String(),
			"flush_interval":      cfg.Sync.FlushInterval.String(),
			"health_interval":     cfg.Sync.HealthInterval.String(),
			"retry_attempts":      cfg.Sync.RetryAttempts,
			"retry_base":          cfg.Sync.RetryBase.String(),
		},
		"memory": map[string]any{
			"db_path": cfg.Memory.DBPath,
		},
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Runner: RunnerConfig{
			Mode:   "subprocess",
			Binary: "claude",
		},
		Executor: ExecutorConfig{
			MaxConcurrent:     3,
			LearnThreshold:    2,
			DefaultDepth:      5,
			DefaultTimeBudget: 60,
		},
		Sync: SyncConfig{
			Tenant:            "default",
			MinUpdateInterval: 1 * time.Second,
			FlushInterval:     2 * time.Second,
			HealthInterval:    30 * time.Second,
			RetryAttempts:     3,
			RetryBase:         2 * time.Second,
		},
	}
}
