package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "List the worker roster",
	Long: `Display the worker roster with declared skills, capacity, and
historical performance.`,
	RunE: runWorkers,
}

func runWorkers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}

	for _, w := range roster {
		marker := color.GreenString("●")
		if !w.IsAvailable {
			marker = color.RedString("●")
		}
		name := w.Name
		if name == cfg.Roster.Coordinator {
			name += " (coordinator)"
		}
		fmt.Printf("%s %-22s capacity %d  avg %.0fm  success %.0f%%\n",
			marker, name, w.MaxConcurrentTasks, w.AverageTaskTimeMinutes, w.SuccessRate)

		skills := make([]string, 0, len(w.SkillLevels))
		for skill := range w.SkillLevels {
			skills = append(skills, skill)
		}
		sort.Strings(skills)
		parts := make([]string, len(skills))
		for i, skill := range skills {
			parts[i] = fmt.Sprintf("%s:%d", skill, w.SkillLevels[skill])
		}
		fmt.Printf("  %s\n", strings.Join(parts, "  "))
	}

	return nil
}
