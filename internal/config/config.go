// Package config handles configuration loading and management for Foreman.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/foreman/internal/memory"
)

// Config holds all configuration for Foreman.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Store     StoreConfig     `mapstructure:"store"`
	Roster    RosterConfig    `mapstructure:"roster"`
	Memory    memory.Limits   `mapstructure:"memory"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Debug     bool            `mapstructure:"debug"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. ${VAR} references are expanded.
	APIKey string `mapstructure:"api_key"`
	// Model is the model name; empty uses the SDK default.
	Model string `mapstructure:"model"`
	// UseAWSBedrock switches to AWS Bedrock instead of the direct API.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string `mapstructure:"aws_profile"`
}

// StoreConfig holds conversation store settings.
type StoreConfig struct {
	// Path is the SQLite database path; empty uses the XDG default.
	Path string `mapstructure:"path"`
}

// RosterConfig holds worker roster settings.
type RosterConfig struct {
	// Path is a YAML roster file; empty uses the built-in roster.
	Path string `mapstructure:"path"`
	// Watch reloads the roster file on change.
	Watch bool `mapstructure:"watch"`
	// Coordinator is the worker whose replies are scanned for workflows.
	Coordinator string `mapstructure:"coordinator"`
	// FallbackWorkers fill detected workflows that mention no worker.
	FallbackWorkers []string `mapstructure:"fallback_workers"`
}

// DispatchConfig holds workflow execution settings.
type DispatchConfig struct {
	// Timeout bounds each per-worker dispatch during execution.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.foreman.yaml in current directory or parent)
// 3. User config (~/.config/foreman/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
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

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
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

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("store.path", "")

	v.SetDefault("roster.path", "")
	v.SetDefault("roster.watch", false)
	v.SetDefault("roster.coordinator", "elena")
	v.SetDefault("roster.fallback_workers", []string{"aria", "victoria", "zara"})

	limits := memory.DefaultLimits()
	v.SetDefault("memory.max_messages", limits.MaxMessages)
	v.SetDefault("memory.keep_recent", limits.KeepRecent)
	v.SetDefault("memory.max_key_tasks", limits.MaxKeyTasks)
	v.SetDefault("memory.max_decisions", limits.MaxDecisions)
	v.SetDefault("memory.keep_memories", limits.KeepMemories)

	v.SetDefault("dispatch.timeout", "30s")

	v.SetDefault("debug", false)
}

// getUserConfigDir returns the XDG config directory for Foreman.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "foreman")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "foreman")
	}
	return filepath.Join(home, ".config", "foreman")
}

// findProjectConfig searches for .foreman.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".foreman.yaml")
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

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Roster: RosterConfig{
			Coordinator:     "elena",
			FallbackWorkers: []string{"aria", "victoria", "zara"},
		},
		Memory: memory.DefaultLimits(),
		Dispatch: DispatchConfig{
			Timeout: 30 * time.Second,
		},
	}
}
