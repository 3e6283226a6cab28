package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/registry"
	"github.com/ShayCichocki/foreman/pkg/models"
)

var (
	assignSkills     []string
	assignComplexity string
	assignPriority   string
	assignMinutes    float64
)

var assignCmd = &cobra.Command{
	Use:   "assign <title>",
	Short: "Preview which worker a task would be allocated to",
	Long: `Score the task against the roster and print the worker it would be
allocated to, with the allocator's confidence and duration estimate.

The preview runs against a fresh registry, so live load from a running
chat session is not reflected. Use /assign inside a chat session to
allocate against live state.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssign,
}

func init() {
	assignCmd.Flags().StringSliceVar(&assignSkills, "skills", nil, "Comma-separated required skill tags")
	assignCmd.Flags().StringVar(&assignComplexity, "complexity", string(models.ComplexityModerate), "Task complexity (simple, moderate, complex, enterprise)")
	assignCmd.Flags().StringVar(&assignPriority, "priority", string(models.PriorityMedium), "Task priority (low, medium, high, critical)")
	assignCmd.Flags().Float64Var(&assignMinutes, "minutes", 30, "Base time estimate in minutes")
}

func runAssign(cmd *cobra.Command, args []string) error {
	complexity := models.TaskComplexity(assignComplexity)
	if !complexity.Valid() {
		return fmt.Errorf("unknown complexity %q", assignComplexity)
	}
	priority := models.TaskPriority(assignPriority)
	if !priority.Valid() {
		return fmt.Errorf("unknown priority %q", assignPriority)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}

	task := &models.Task{
		ID:                   "task-" + uuid.New().String()[:8],
		Title:                strings.Join(args, " "),
		Priority:             priority,
		Complexity:           complexity,
		RequiredSkills:       assignSkills,
		EstimatedTimeMinutes: assignMinutes,
	}

	a, err := registry.New(roster).Assign(task)
	if err != nil {
		if errors.Is(err, registry.ErrNoAvailableWorker) {
			fmt.Println("No worker can take this task right now.")
			return nil
		}
		return fmt.Errorf("assign: %w", err)
	}

	fmt.Printf("%s gets %q\n", color.GreenString(a.WorkerName), task.Title)
	fmt.Printf("  confidence %.1f  estimated %.0fm  task id %s\n",
		a.Confidence, a.EstimatedDurationMinutes, a.TaskID)
	return nil
}
