package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/config"
	"github.com/ShayCichocki/foreman/pkg/models"
)

var cfgFile string
var debugMode bool

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Worker orchestration and task allocation",
	Long: `Foreman runs a pool of specialist workers: it allocates tasks by
skill and load, holds per-worker conversations through the Anthropic
API, compacts long histories into persistent memory, and stages
multi-worker workflows detected in the coordinator's replies.

With no arguments, launches an interactive chat session with the
coordinating worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat("", "")
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: XDG config plus .foreman.yaml overrides)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Write a debug log")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromPath(cfgFile)
	}
	return config.Load()
}

// loadRoster loads the worker roster named by the config, falling back
// to the built-in roster when no path is set.
func loadRoster(cfg *config.Config) ([]models.WorkerProfile, error) {
	if cfg.Roster.Path == "" {
		return config.DefaultRoster(), nil
	}
	roster, err := config.LoadRoster(cfg.Roster.Path)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return roster, nil
}
