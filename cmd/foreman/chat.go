package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/config"
	"github.com/ShayCichocki/foreman/internal/generate"
	"github.com/ShayCichocki/foreman/internal/memory"
	"github.com/ShayCichocki/foreman/internal/orchestrator"
	"github.com/ShayCichocki/foreman/internal/registry"
	"github.com/ShayCichocki/foreman/internal/store"
	"github.com/ShayCichocki/foreman/internal/tui"
	"github.com/ShayCichocki/foreman/internal/workflow"
	"github.com/ShayCichocki/foreman/pkg/models"
)

var (
	chatUser   string
	chatWorker string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Talk to a worker, interactively or one-shot",
	Long: `Open an interactive conversation with a worker (the coordinator by
default), or send a single message when one is given as arguments.
Replies from the coordinator are scanned for multi-worker workflows,
which are staged for approval; approve them with /execute.

Type /help inside the session for the available commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(chatWorker, strings.Join(args, " "))
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "operator", "User id for the conversation")
	chatCmd.Flags().StringVar(&chatWorker, "worker", "", "Worker to talk to (default: the coordinator)")
}

var (
	workerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func runChat(startWorker, oneShot string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}

	if !cfg.Anthropic.UseAWSBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return err
		}
		if err := config.ValidateAPIKey(key); err != nil {
			return err
		}
	}

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = store.DefaultPath()
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	logger := orchestrator.NopLogger()
	if debugMode || cfg.Debug {
		logger, err = orchestrator.NewDebugLogger(orchestrator.DefaultLogPath())
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer logger.Close()
	}

	client, err := generate.NewClient(generate.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	reg := registry.New(roster)
	coord := orchestrator.NewCoordinator(orchestrator.CoordinatorConfig{
		Registry:        reg,
		Detector:        workflow.NewDetector(config.WorkerNames(roster), cfg.Roster.FallbackWorkers),
		Compactor:       memory.NewCompactor(db, cfg.Memory),
		Store:           db,
		Generator:       client,
		CoordinatorName: cfg.Roster.Coordinator,
		DispatchTimeout: cfg.Dispatch.Timeout,
		Logger:          logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go coord.RunSweeper(ctx, 10*time.Minute)

	if cfg.Roster.Watch && cfg.Roster.Path != "" {
		watcher, err := config.WatchRoster(cfg.Roster.Path, func(ws []models.WorkerProfile) {
			reg.Reload(ws)
			logger.Log("roster reloaded: %d workers", len(ws))
		})
		if err != nil {
			return fmt.Errorf("watch roster: %w", err)
		}
		defer watcher.Close()
	}

	session := &chatSession{
		coord:  coord,
		client: client,
		worker: cfg.Roster.Coordinator,
		user:   chatUser,
		roster: config.WorkerNames(roster),
	}
	if startWorker != "" {
		session.worker = startWorker
	}

	if oneShot != "" {
		lines, err := session.send(ctx, oneShot)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	}

	return runChatTUI(ctx, session)
}

// runChatTUI hosts the session in a Bubbletea program. Slow work runs
// off the update loop and reports back through program.Send.
func runChatTUI(ctx context.Context, session *chatSession) error {
	// Suppress log output while the TUI owns the terminal.
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	program, app := tui.NewChatProgram(session.worker)

	app.SetSubmitHandler(func(text string) {
		go func() {
			if strings.HasPrefix(text, "/") {
				lines, quit := session.command(ctx, text)
				if quit {
					program.Send(tui.QuitMsg{})
					return
				}
				program.Send(tui.TranscriptMsg{Lines: lines})
				program.Send(tui.WorkerChangedMsg{Worker: session.worker})
				program.Send(tui.BusyMsg{Busy: false})
				return
			}

			lines, err := session.send(ctx, text)
			if err != nil {
				lines = []string{errStyle.Render(fmt.Sprintf("error: %v", err))}
			}
			program.Send(tui.TranscriptMsg{Lines: lines})
			program.Send(tui.BusyMsg{Busy: false})
		}()
	})

	go func() {
		<-ctx.Done()
		program.Send(tui.QuitMsg{})
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

type chatSession struct {
	coord  *orchestrator.Coordinator
	client *generate.Client
	worker string
	user   string
	roster []string
}

// send runs one exchange with the current worker and returns the reply
// rendered as transcript lines.
func (s *chatSession) send(ctx context.Context, text string) ([]string, error) {
	reply, err := s.coord.HandleMessage(ctx, s.worker, s.user, text)
	if err != nil {
		return nil, err
	}

	lines := []string{fmt.Sprintf("%s > %s", workerStyle.Render(s.worker), reply.Text)}
	if reply.Compacted {
		lines = append(lines, noticeStyle.Render("(conversation compacted into memory)"))
	}
	if wf := reply.Workflow; wf != nil {
		lines = append(lines, noticeStyle.Render(fmt.Sprintf(
			"staged workflow %s %q [%s] with %s; /execute %s to run it",
			wf.ID, wf.Name, wf.Priority, strings.Join(wf.Workers, ", "), wf.ID)))
	}
	return lines, nil
}

// command handles a slash command, returning its output lines and
// whether the session should end.
func (s *chatSession) command(ctx context.Context, line string) ([]string, bool) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var lines []string
	fail := func(format string, a ...any) {
		lines = append(lines, errStyle.Render(fmt.Sprintf(format, a...)))
	}

	switch cmd {
	case "/quit", "/exit":
		return nil, true

	case "/help":
		lines = append(lines,
			"  /talk <worker>       switch the conversation to another worker",
			"  /workers             list workers with live load",
			"  /status              load recommendations and token usage",
			"  /assign <skill> <title...>   allocate a task against live load",
			"  /complete <task-id> [failed] finish an assigned task",
			"  /enable <worker>, /disable <worker>",
			"  /workflows           list staged workflows",
			"  /execute <id>        approve and run a staged workflow",
			"  /remove <id>         discard a staged workflow",
			"  /history             executed workflows",
			"  /quit                exit",
		)

	case "/talk":
		if len(args) != 1 {
			fail("usage: /talk <worker>")
			break
		}
		known := false
		for _, name := range s.roster {
			if name == args[0] {
				known = true
				break
			}
		}
		if !known {
			fail("unknown worker %q", args[0])
			break
		}
		s.worker = args[0]
		lines = append(lines, fmt.Sprintf("Now talking to %s.", workerStyle.Render(s.worker)))

	case "/workers":
		for _, w := range s.coord.Registry().Workers() {
			marker := "●"
			if !w.IsAvailable {
				marker = "○"
			}
			lines = append(lines, fmt.Sprintf("  %s %-12s %d/%d tasks  success %.0f%%",
				marker, w.Name, w.CurrentLoad, w.MaxConcurrentTasks, w.SuccessRate))
		}

	case "/status":
		for _, rec := range s.coord.Registry().LoadRecommendations() {
			lines = append(lines, fmt.Sprintf("  %-12s %3d%%  %s", rec.WorkerName, rec.LoadPercent, rec.Recommendation))
		}
		in, out := s.client.Tracker().Total()
		lines = append(lines, fmt.Sprintf("  tokens: %d in, %d out over %d calls ($%.4f)",
			in, out, s.client.Tracker().Calls(), s.client.Tracker().Cost()))
		stats := s.coord.Stager().CurrentStats()
		lines = append(lines, fmt.Sprintf("  workflows: %d staged, %d executed (%d/%d dispatches ok)",
			stats.Staged, stats.Executed, stats.DispatchesSucceeded,
			stats.DispatchesSucceeded+stats.DispatchesFailed))

	case "/assign":
		if len(args) < 2 {
			fail("usage: /assign <skill>[,skill...] <title...>")
			break
		}
		task := &models.Task{
			ID:             "task-" + uuid.New().String()[:8],
			Title:          strings.Join(args[1:], " "),
			Priority:       models.PriorityMedium,
			Complexity:     models.ComplexityModerate,
			RequiredSkills: strings.Split(args[0], ","),
		}
		a, err := s.coord.Registry().Assign(task)
		if err != nil {
			if errors.Is(err, registry.ErrNoAvailableWorker) {
				fail("no worker can take this task right now")
			} else {
				fail("assign: %v", err)
			}
			break
		}
		lines = append(lines, fmt.Sprintf("  %s gets %s (confidence %.1f, ~%.0fm)",
			workerStyle.Render(a.WorkerName), a.TaskID, a.Confidence, a.EstimatedDurationMinutes))

	case "/complete":
		if len(args) == 0 {
			fail("usage: /complete <task-id> [failed]")
			break
		}
		success := len(args) < 2 || args[1] != "failed"
		if err := s.coord.Registry().Complete(args[0], success); err != nil {
			fail("%v", err)
			break
		}
		lines = append(lines, fmt.Sprintf("  %s settled", args[0]))

	case "/enable", "/disable":
		if len(args) != 1 {
			fail("usage: %s <worker>", cmd)
			break
		}
		if !s.coord.Registry().SetAvailability(args[0], cmd == "/enable") {
			fail("unknown worker %q", args[0])
		}

	case "/workflows":
		staged := s.coord.Stager().ListStaged()
		if len(staged) == 0 {
			lines = append(lines, "  no staged workflows")
			break
		}
		for _, wf := range staged {
			lines = append(lines, fmt.Sprintf("  %s %q [%s] ~%dm with %s",
				wf.ID, wf.Name, wf.Priority, wf.EstimatedDurationMinutes, strings.Join(wf.Workers, ", ")))
		}

	case "/execute":
		if len(args) != 1 {
			fail("usage: /execute <id>")
			break
		}
		res, err := s.coord.Stager().Execute(ctx, args[0])
		if err != nil {
			fail("%v", err)
			break
		}
		lines = append(lines, fmt.Sprintf("  %q done: %d succeeded, %d failed", res.Name, res.Succeeded, res.Failed))
		for _, r := range res.Results {
			marker := "✓"
			if !r.OK {
				marker = "✗"
			}
			lines = append(lines, fmt.Sprintf("    %s %s (%s): %s",
				marker, r.WorkerName, r.Duration.Round(time.Millisecond), r.Summary))
		}

	case "/remove":
		if len(args) != 1 {
			fail("usage: /remove <id>")
			break
		}
		if !s.coord.Stager().Remove(args[0]) {
			fail("no staged workflow %q", args[0])
		}

	case "/history":
		executed := s.coord.Stager().Executed()
		if len(executed) == 0 {
			lines = append(lines, "  no executed workflows")
			break
		}
		for _, wf := range executed {
			lines = append(lines, fmt.Sprintf("  %s %q [%s] %s",
				wf.ID, wf.Name, wf.Status, wf.DetectedAt.Format("2006-01-02 15:04")))
		}

	default:
		fail("unknown command %s", cmd)
	}
	return lines, false
}
