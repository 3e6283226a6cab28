package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ShayCichocki/foreman/internal/generate"
	"github.com/ShayCichocki/foreman/internal/memory"
	"github.com/ShayCichocki/foreman/internal/registry"
	"github.com/ShayCichocki/foreman/internal/store"
	"github.com/ShayCichocki/foreman/internal/workflow"
	"github.com/ShayCichocki/foreman/pkg/models"
)

// ErrUnknownWorker is returned when a message targets a worker that is
// not on the roster.
var ErrUnknownWorker = errors.New("unknown worker")

// convKey identifies one (worker, user) conversation.
type convKey struct {
	worker string
	user   string
}

// Reply is the outcome of one conversation turn.
type Reply struct {
	// Text is the worker's reply.
	Text string
	// Workflow is the staged workflow extracted from a coordinator
	// reply, nil when none was detected.
	Workflow *models.DetectedWorkflow
	// Compacted reports whether this turn triggered history compaction.
	Compacted bool
}

// CoordinatorConfig assembles a Coordinator.
type CoordinatorConfig struct {
	Registry *registry.Registry
	Detector *workflow.Detector
	// Stager is optional; when nil the coordinator builds one with
	// itself as the dispatcher.
	Stager    *workflow.Stager
	Compactor *memory.Compactor
	Store     store.ConversationStore
	Generator generate.Generator
	// DispatchTimeout bounds each workflow dispatch. Zero means the
	// stager default.
	DispatchTimeout time.Duration
	// CoordinatorName is the worker whose replies are scanned for
	// workflows.
	CoordinatorName string
	// Personas maps worker name to its persona prompt; missing entries
	// get a generated one.
	Personas map[string]string
	Logger   *DebugLogger
}

// Coordinator runs the conversation loop: it records turns, generates
// replies, compacts long histories, and stages workflows found in the
// coordinating worker's replies. It also serves as the stager's
// dispatcher, so executed workflows flow back through the same loop.
type Coordinator struct {
	registry  *registry.Registry
	detector  *workflow.Detector
	stager    *workflow.Stager
	compactor *memory.Compactor
	store     store.ConversationStore
	gen       generate.Generator
	coordName string
	personas  map[string]string
	logger    *DebugLogger

	mu      sync.Mutex
	windows map[convKey][]models.ConversationTurn
	locks   map[convKey]*sync.Mutex
}

// NewCoordinator creates a coordinator over the given components.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	personas := cfg.Personas
	if personas == nil {
		personas = make(map[string]string)
	}
	c := &Coordinator{
		registry:  cfg.Registry,
		detector:  cfg.Detector,
		stager:    cfg.Stager,
		compactor: cfg.Compactor,
		store:     cfg.Store,
		gen:       cfg.Generator,
		coordName: cfg.CoordinatorName,
		personas:  personas,
		logger:    cfg.Logger,
		windows:   make(map[convKey][]models.ConversationTurn),
		locks:     make(map[convKey]*sync.Mutex),
	}
	if c.stager == nil {
		c.stager = workflow.NewStager(c, cfg.DispatchTimeout)
	}
	return c
}

// Registry returns the worker registry.
func (c *Coordinator) Registry() *registry.Registry {
	return c.registry
}

// Stager returns the workflow stager.
func (c *Coordinator) Stager() *workflow.Stager {
	return c.stager
}

// convLock returns the mutex serializing one conversation.
func (c *Coordinator) convLock(key convKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// window returns the active window for a conversation, restoring
// persisted context on first access.
func (c *Coordinator) window(key convKey) []models.ConversationTurn {
	c.mu.Lock()
	w, ok := c.windows[key]
	c.mu.Unlock()
	if ok {
		return w
	}

	restored := c.compactor.Restore(key.worker, key.user, nil, nil)
	c.mu.Lock()
	c.windows[key] = restored
	c.mu.Unlock()
	return restored
}

func (c *Coordinator) setWindow(key convKey, w []models.ConversationTurn) {
	c.mu.Lock()
	c.windows[key] = w
	c.mu.Unlock()
}

// persona returns the system prompt for a worker, generating one from
// its profile when not explicitly configured.
func (c *Coordinator) persona(workerName string) string {
	if p, ok := c.personas[workerName]; ok {
		return p
	}

	for _, w := range c.registry.Workers() {
		if w.Name != workerName {
			continue
		}
		p := fmt.Sprintf("You are %s, a specialist in %s. Reply concisely and concretely.",
			w.Name, strings.Join(w.Specializations, ", "))
		if workerName == c.coordName {
			p += " You coordinate the team: when work needs multiple workers, describe the workflow, name the workers involved, and state priority and duration."
		}
		return p
	}
	return fmt.Sprintf("You are %s. Reply concisely and concretely.", workerName)
}

// knownWorker reports whether the worker is on the roster.
func (c *Coordinator) knownWorker(name string) bool {
	for _, w := range c.registry.Workers() {
		if w.Name == name {
			return true
		}
	}
	return false
}

// HandleMessage runs one conversation turn: the user message and the
// generated reply are appended to the store and the active window, the
// window is compacted when it crosses the limit, and a coordinator reply
// is scanned for a workflow to stage. Turns for the same conversation are
// serialized; different conversations proceed concurrently. Generation
// failures are returned; store failures are logged and swallowed so a
// broken store never blocks the conversation.
func (c *Coordinator) HandleMessage(ctx context.Context, workerName, userID, text string) (*Reply, error) {
	if !c.knownWorker(workerName) {
		return nil, fmt.Errorf("handle message for %s: %w", workerName, ErrUnknownWorker)
	}

	key := convKey{worker: workerName, user: userID}
	lock := c.convLock(key)
	lock.Lock()
	defer lock.Unlock()

	window := c.window(key)

	userTurn := models.ConversationTurn{
		WorkerName: workerName,
		UserID:     userID,
		Role:       models.RoleUser,
		Content:    text,
		Timestamp:  time.Now(),
	}
	// Store writes are logged and swallowed: the conversation keeps
	// moving on a broken store, it just loses durability.
	if err := c.store.AppendTurn(&userTurn); err != nil {
		c.logger.Log("record user turn for %s/%s: %v", workerName, userID, err)
	}
	window = append(window, userTurn)

	reply, err := c.gen.Generate(ctx, generate.Request{
		WorkerName: workerName,
		System:     c.persona(workerName),
		History:    window,
	})
	if err != nil {
		c.setWindow(key, window)
		return nil, fmt.Errorf("generate reply for %s: %w", workerName, err)
	}

	assistantTurn := models.ConversationTurn{
		WorkerName: workerName,
		UserID:     userID,
		Role:       models.RoleAssistant,
		Content:    reply,
		Timestamp:  time.Now(),
	}
	if err := c.store.AppendTurn(&assistantTurn); err != nil {
		c.logger.Log("record assistant turn for %s/%s: %v", workerName, userID, err)
	}
	window = append(window, assistantTurn)

	managed := c.compactor.Manage(workerName, userID, window)
	c.setWindow(key, managed.NewHistory)

	out := &Reply{Text: reply, Compacted: managed.Cleared}

	if workerName == c.coordName {
		convID := fmt.Sprintf("%s-%s", workerName, userID)
		if wf := c.detector.Detect(reply, convID); wf != nil {
			out.Workflow = c.stager.Stage(wf)
			c.logger.Log("staged workflow %s (%s) from %s's reply", out.Workflow.ID, out.Workflow.Name, workerName)
		}
	}

	return out, nil
}

// Dispatch delivers a workflow task to one worker and returns its reply.
// It implements workflow.Dispatcher. Dispatches run on their own
// conversation ids, so they never contend with user conversations.
func (c *Coordinator) Dispatch(ctx context.Context, workerName, conversationID, message string) (string, error) {
	if !c.knownWorker(workerName) {
		return "", fmt.Errorf("dispatch to %s: %w", workerName, ErrUnknownWorker)
	}

	userTurn := models.ConversationTurn{
		WorkerName: workerName,
		UserID:     conversationID,
		Role:       models.RoleUser,
		Content:    message,
		Timestamp:  time.Now(),
	}
	if err := c.store.AppendTurn(&userTurn); err != nil {
		c.logger.Log("record dispatch turn for %s/%s: %v", workerName, conversationID, err)
	}

	reply, err := c.gen.Generate(ctx, generate.Request{
		WorkerName: workerName,
		System:     c.persona(workerName),
		History:    []models.ConversationTurn{userTurn},
	})
	if err != nil {
		return "", err
	}

	assistantTurn := models.ConversationTurn{
		WorkerName: workerName,
		UserID:     conversationID,
		Role:       models.RoleAssistant,
		Content:    reply,
		Timestamp:  time.Now(),
	}
	if err := c.store.AppendTurn(&assistantTurn); err != nil {
		c.logger.Log("record dispatch reply for %s/%s: %v", workerName, conversationID, err)
	}
	return reply, nil
}

// Compile-time verification that Coordinator can drive workflow execution.
var _ workflow.Dispatcher = (*Coordinator)(nil)

// RunSweeper ages out stale workflows on the given interval until the
// context is canceled.
func (c *Coordinator) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.stager.Sweep(); n > 0 {
				c.logger.Log("sweeper deleted %d stale workflows", n)
			}
		}
	}
}
