package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/registry"
	"github.com/ShayCichocki/foreman/internal/store"
	"github.com/ShayCichocki/foreman/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show roster load and the conversation store",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Roster: %d workers, coordinator %s\n\n", len(roster), cfg.Roster.Coordinator)

	for _, rec := range registry.New(roster).LoadRecommendations() {
		fmt.Printf("  %-12s %3d%%  %s\n", rec.WorkerName, rec.LoadPercent, colorRecommendation(rec.Recommendation))
	}

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = store.DefaultPath()
	}
	fmt.Printf("\nConversation store: %s", dbPath)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Print(" (not created yet)")
	} else {
		db, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate store: %w", err)
		}
		pairs, err := db.Conversations()
		if err != nil {
			return fmt.Errorf("list conversations: %w", err)
		}
		fmt.Printf(" (%d conversations)", len(pairs))
	}
	fmt.Println()

	return nil
}

func colorRecommendation(rec string) string {
	switch rec {
	case models.LoadHigh:
		return color.RedString(rec)
	case models.LoadModerate:
		return color.YellowString(rec)
	case models.LoadUnderutilized:
		return color.CyanString(rec)
	default:
		return color.GreenString(rec)
	}
}
