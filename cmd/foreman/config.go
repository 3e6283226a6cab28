package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/config"
	"github.com/ShayCichocki/foreman/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Display the effective configuration after merging defaults, the user
config, project overrides, and environment variables.

Configuration is stored at ` + "`~/.config/foreman/config.yaml`" + `.
Project-specific overrides can be placed in .foreman.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		displayConfig(cfg)
		return nil
	},
}

func displayConfig(cfg *config.Config) {
	apiKey := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKey = config.MaskAPIKey(cfg.Anthropic.APIKey)
	}
	model := cfg.Anthropic.Model
	if model == "" {
		model = "(sdk default)"
	}
	storePath := cfg.Store.Path
	if storePath == "" {
		storePath = store.DefaultPath()
	}
	rosterPath := cfg.Roster.Path
	if rosterPath == "" {
		rosterPath = "(built-in)"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKey)
	fmt.Printf("anthropic.model: %s\n", model)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("store.path: %s\n", storePath)
	fmt.Printf("roster.path: %s\n", rosterPath)
	fmt.Printf("roster.watch: %t\n", cfg.Roster.Watch)
	fmt.Printf("roster.coordinator: %s\n", cfg.Roster.Coordinator)
	fmt.Printf("roster.fallback_workers: %s\n", strings.Join(cfg.Roster.FallbackWorkers, ", "))
	fmt.Printf("memory.max_messages: %d\n", cfg.Memory.MaxMessages)
	fmt.Printf("memory.keep_recent: %d\n", cfg.Memory.KeepRecent)
	fmt.Printf("memory.max_key_tasks: %d\n", cfg.Memory.MaxKeyTasks)
	fmt.Printf("memory.max_decisions: %d\n", cfg.Memory.MaxDecisions)
	fmt.Printf("memory.keep_memories: %d\n", cfg.Memory.KeepMemories)
	fmt.Printf("dispatch.timeout: %s\n", cfg.Dispatch.Timeout)
	fmt.Printf("debug: %t\n", cfg.Debug)
}
