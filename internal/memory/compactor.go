// Package memory compacts long conversation histories into summaries and
// restores them at session start, so workers keep context across the
// active-window limit.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ShayCichocki/foreman/internal/store"
	"github.com/ShayCichocki/foreman/pkg/models"
)

// Limits bound the compactor's behavior.
type Limits struct {
	// MaxMessages is the active-window length that triggers compaction.
	MaxMessages int `mapstructure:"max_messages"`
	// KeepRecent is how many raw turns survive a compaction.
	KeepRecent int `mapstructure:"keep_recent"`
	// MaxKeyTasks caps the summary task list.
	MaxKeyTasks int `mapstructure:"max_key_tasks"`
	// MaxDecisions caps the summary decision list.
	MaxDecisions int `mapstructure:"max_decisions"`
	// KeepMemories is how many persisted memory turns Cleanup retains.
	KeepMemories int `mapstructure:"keep_memories"`
}

// DefaultLimits returns the standard compaction limits.
func DefaultLimits() Limits {
	return Limits{
		MaxMessages:  30,
		KeepRecent:   5,
		MaxKeyTasks:  15,
		MaxDecisions: 8,
		KeepMemories: 3,
	}
}

// taskKeywords mark a user turn as a task request.
var taskKeywords = []string{
	"create", "build", "implement", "design", "fix", "add",
	"update", "make", "develop", "complete", "ready to start",
}

// analysisCues mark an assistant turn as carrying strategic decisions.
var analysisCues = []string{
	"strategic analysis", "recommended workflow", "next steps", "workflow estimation",
}

// decisionLineCues are the emphasized headings a decision line carries.
var decisionLineCues = []string{"ANALYSIS", "WORKFLOW", "RECOMMENDATION", "STEPS"}

// completionCues mark an assistant turn as reporting finished work.
var completionCues = []string{"✅", "completed", "created", "implemented", "fixed", "added"}

// contextKeywords drive the current-context line and workflow stage.
var contextKeywords = []string{"dashboard", "redesign", "workflow", "audit", "launch", "admin"}

// ManageResult is the outcome of one compaction check.
type ManageResult struct {
	// Cleared reports whether the history was compacted.
	Cleared bool
	// Summary is the produced summary, nil when Cleared is false.
	Summary *models.ConversationSummary
	// NewHistory is the active window the caller should continue with.
	NewHistory []models.ConversationTurn
}

// Compactor summarizes over-long conversation windows and persists the
// summaries as memory turns. Safe for concurrent use as long as callers
// serialize per conversation; the coordinator does that.
type Compactor struct {
	store  store.ConversationStore
	limits Limits
	// Logf receives debug output when set; nil disables logging.
	Logf func(format string, args ...any)
	now  func() time.Time
}

// NewCompactor creates a compactor over the given store. Zero limits
// fields fall back to their defaults.
func NewCompactor(s store.ConversationStore, limits Limits) *Compactor {
	def := DefaultLimits()
	if limits.MaxMessages <= 0 {
		limits.MaxMessages = def.MaxMessages
	}
	if limits.KeepRecent <= 0 {
		limits.KeepRecent = def.KeepRecent
	}
	if limits.MaxKeyTasks <= 0 {
		limits.MaxKeyTasks = def.MaxKeyTasks
	}
	if limits.MaxDecisions <= 0 {
		limits.MaxDecisions = def.MaxDecisions
	}
	if limits.KeepMemories <= 0 {
		limits.KeepMemories = def.KeepMemories
	}
	return &Compactor{store: s, limits: limits, now: time.Now}
}

func (c *Compactor) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

// Manage checks the active window and compacts it when it reaches the
// message limit: a summary is built from the whole window, persisted as a
// memory turn, and the returned history is one synthetic summary turn
// followed by the most recent raw turns. Below the limit the history is
// returned unchanged. Store failures are logged and swallowed; the
// compacted history is returned regardless, so a broken store never
// blocks the conversation or lets the window grow without bound.
func (c *Compactor) Manage(workerName, userID string, history []models.ConversationTurn) *ManageResult {
	if len(history) < c.limits.MaxMessages {
		return &ManageResult{NewHistory: history}
	}

	c.logf("compacting conversation %s/%s: %d turns", workerName, userID, len(history))

	summary := c.Summarize(workerName, userID, history)

	if mem, err := memoryTurn(summary); err != nil {
		c.logf("build memory turn for %s/%s: %v", workerName, userID, err)
	} else if err := c.store.AppendTurn(mem); err != nil {
		c.logf("persist memory turn for %s/%s: %v", workerName, userID, err)
	}

	recent := history[len(history)-c.limits.KeepRecent:]
	newHistory := make([]models.ConversationTurn, 0, len(recent)+1)
	newHistory = append(newHistory, models.ConversationTurn{
		WorkerName: workerName,
		UserID:     userID,
		Role:       models.RoleSystem,
		Content:    renderSummary(summary, true),
		Timestamp:  c.now(),
	})
	newHistory = append(newHistory, recent...)

	c.logf("conversation %s/%s compacted: %d -> %d turns", workerName, userID, len(history), len(newHistory))
	return &ManageResult{Cleared: true, Summary: summary, NewHistory: newHistory}
}

// Summarize scans every turn of the window and distills it into a
// ConversationSummary.
func (c *Compactor) Summarize(workerName, userID string, history []models.ConversationTurn) *models.ConversationSummary {
	var keyTasks, decisions []string

	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			lower := strings.ToLower(turn.Content)
			for _, kw := range taskKeywords {
				if !strings.Contains(lower, kw) {
					continue
				}
				task := strings.TrimSpace(strings.ReplaceAll(truncate(turn.Content, 150), "\n", " "))
				if task != "" && !containsPrefix(keyTasks, truncate(task, 50)) {
					keyTasks = append(keyTasks, task)
				}
				break
			}
		case models.RoleAssistant:
			lower := strings.ToLower(turn.Content)
			if containsAny(lower, analysisCues) {
				for _, line := range strings.Split(turn.Content, "\n") {
					if !strings.Contains(line, "**") || !containsAny(line, decisionLineCues) {
						continue
					}
					decision := truncate(strings.TrimSpace(line), 120)
					if decision != "" && !contains(decisions, decision) {
						decisions = append(decisions, decision)
					}
				}
			}
			if containsAny(lower, completionCues) {
				for _, line := range strings.Split(turn.Content, "\n") {
					if !strings.Contains(line, "✅") && !strings.Contains(strings.ToLower(line), "completed") {
						continue
					}
					task := strings.TrimSpace(strings.ReplaceAll(truncate(strings.TrimSpace(line), 120), "✅", ""))
					if task != "" && !containsPrefix(keyTasks, truncate(task, 30)) {
						keyTasks = append(keyTasks, task)
					}
				}
			}
		}
	}

	currentContext, stage := deriveContext(history)

	if len(keyTasks) > c.limits.MaxKeyTasks {
		keyTasks = keyTasks[:c.limits.MaxKeyTasks]
	}
	if len(decisions) > c.limits.MaxDecisions {
		decisions = decisions[:c.limits.MaxDecisions]
	}

	return &models.ConversationSummary{
		WorkerName:      workerName,
		UserID:          userID,
		KeyTasks:        keyTasks,
		RecentDecisions: decisions,
		CurrentContext:  currentContext,
		WorkflowStage:   stage,
		Timestamp:       c.now(),
	}
}

// deriveContext builds the current-context line and workflow stage from
// the joined window text, with layered fallbacks.
func deriveContext(history []models.ConversationTurn) (string, string) {
	var joined strings.Builder
	for _, turn := range history {
		joined.WriteString(strings.ToLower(turn.Content))
		joined.WriteByte(' ')
	}
	full := joined.String()

	var found []string
	for _, kw := range contextKeywords {
		if strings.Contains(full, kw) {
			found = append(found, kw)
		}
	}
	if len(found) > 0 {
		return fmt.Sprintf("Working on: %s related tasks", strings.Join(found, ", ")), strings.Join(found, "-")
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != models.RoleUser {
			continue
		}
		focus := strings.TrimSpace(strings.ReplaceAll(truncate(history[i].Content, 100), "\n", " "))
		return fmt.Sprintf("Current focus: %s", focus), "current-task"
	}

	return "Available for new tasks", "ready"
}

// KnowledgeEntry is an externally supplied learning record rendered into
// restored context.
type KnowledgeEntry struct {
	LearningType string
	Category     string
	Confidence   float64
}

// OptimizationProfile is an externally supplied tuning record rendered
// into restored context.
type OptimizationProfile struct {
	IntelligenceLevel int
	MemoryStrength    float64
	LastOptimization  time.Time
}

// Restore builds the context turns a worker receives at session start:
// the most recent persisted memory, then learned knowledge, then the
// optimization profile, each as its own system turn. Missing pieces are
// skipped; an empty slice means a cold start. Store failures are logged
// and treated as no memory.
func (c *Compactor) Restore(workerName, userID string, knowledge []KnowledgeEntry, profile *OptimizationProfile) []models.ConversationTurn {
	var out []models.ConversationTurn

	if latest := c.latestMemory(workerName, userID); latest != nil {
		out = append(out, models.ConversationTurn{
			WorkerName: workerName,
			UserID:     userID,
			Role:       models.RoleSystem,
			Content:    renderSummary(latest, false),
			Timestamp:  c.now(),
		})
	}

	if len(knowledge) > 0 {
		if len(knowledge) > 5 {
			knowledge = knowledge[:5]
		}
		var b strings.Builder
		b.WriteString("**LEARNED KNOWLEDGE:**")
		for _, k := range knowledge {
			fmt.Fprintf(&b, "\n• %s: %s (confidence: %.2f)", k.LearningType, k.Category, k.Confidence)
		}
		out = append(out, models.ConversationTurn{
			WorkerName: workerName,
			UserID:     userID,
			Role:       models.RoleSystem,
			Content:    b.String(),
			Timestamp:  c.now(),
		})
	}

	if profile != nil {
		out = append(out, models.ConversationTurn{
			WorkerName: workerName,
			UserID:     userID,
			Role:       models.RoleSystem,
			Content: fmt.Sprintf(
				"**WORKER OPTIMIZATION:**\nIntelligence Level: %d/10\nMemory Strength: %.1f%%\nLast Optimization: %s",
				profile.IntelligenceLevel,
				profile.MemoryStrength*100,
				profile.LastOptimization.Format("2006-01-02"),
			),
			Timestamp: c.now(),
		})
	}

	c.logf("restored %d context turns for %s/%s", len(out), workerName, userID)
	return out
}

// latestMemory returns the most recent persisted summary, or nil.
func (c *Compactor) latestMemory(workerName, userID string) *models.ConversationSummary {
	turns, err := c.store.History(workerName, userID)
	if err != nil {
		c.logf("load history for %s/%s: %v", workerName, userID, err)
		return nil
	}

	var latest *models.ConversationSummary
	for i := range turns {
		s, ok := parseMemoryTurn(&turns[i])
		if !ok {
			continue
		}
		if latest == nil || s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	return latest
}

// Cleanup retains only the most recent memory turns for a conversation
// and deletes the rest from the store. It returns the number deleted.
func (c *Compactor) Cleanup(workerName, userID string) (int, error) {
	turns, err := c.store.History(workerName, userID)
	if err != nil {
		return 0, fmt.Errorf("load history: %w", err)
	}

	var memories []models.ConversationTurn
	for _, t := range turns {
		if IsMemoryTurn(&t) {
			memories = append(memories, t)
		}
	}
	sort.Slice(memories, func(i, j int) bool {
		return memories[i].Timestamp.After(memories[j].Timestamp)
	})

	deleted := 0
	for _, old := range memories[min(len(memories), c.limits.KeepMemories):] {
		if err := c.store.DeleteTurn(old.ID); err != nil {
			return deleted, fmt.Errorf("delete memory turn %d: %w", old.ID, err)
		}
		deleted++
	}
	if deleted > 0 {
		c.logf("cleaned up %d old memories for %s/%s", deleted, workerName, userID)
	}
	return deleted, nil
}

// renderSummary renders a summary as the prose system turn injected into
// an active window (continuing) or a restored session.
func renderSummary(s *models.ConversationSummary, continuing bool) string {
	heading := "**SESSION CONTEXT RESTORED**"
	if continuing {
		heading = "**CONVERSATION MEMORY RESTORED**"
	}

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n\n**Previous Context:**\n")
	b.WriteString(s.CurrentContext)
	b.WriteString("\n\n**Key Tasks Completed:**\n")
	for i, task := range s.KeyTasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• " + task)
	}
	b.WriteString("\n\n**Recent Decisions:**\n")
	for i, d := range s.RecentDecisions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• " + d)
	}
	b.WriteString("\n\n**Current Workflow Stage:** ")
	b.WriteString(s.WorkflowStage)
	if continuing {
		b.WriteString("\n\n---\n\n**Continuing from where we left off...**")
	}
	return b.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// containsPrefix reports whether any existing item already contains the
// given prefix, the collision check used for task dedup.
func containsPrefix(items []string, prefix string) bool {
	for _, item := range items {
		if strings.Contains(item, prefix) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
