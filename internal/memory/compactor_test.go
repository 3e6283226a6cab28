package memory

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/foreman/internal/store"
	"github.com/ShayCichocki/foreman/pkg/models"
)

func setupCompactor(t *testing.T) (*Compactor, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return NewCompactor(db, Limits{}), db
}

func turn(role models.TurnRole, content string) models.ConversationTurn {
	return models.ConversationTurn{
		WorkerName: "maya",
		UserID:     "u1",
		Role:       role,
		Content:    content,
		Timestamp:  time.Now(),
	}
}

func longHistory(n int) []models.ConversationTurn {
	var history []models.ConversationTurn
	for i := 0; len(history) < n; i++ {
		history = append(history, turn(models.RoleUser, fmt.Sprintf("please fix issue number %d", i)))
		if len(history) < n {
			history = append(history, turn(models.RoleAssistant, fmt.Sprintf("Issue %d resolved.", i)))
		}
	}
	return history
}

func TestManageBelowThresholdUnchanged(t *testing.T) {
	c, db := setupCompactor(t)

	history := longHistory(29)
	res := c.Manage("maya", "u1", history)
	if res.Cleared {
		t.Error("29 turns must not trigger compaction")
	}
	if len(res.NewHistory) != 29 {
		t.Errorf("expected history unchanged, got %d turns", len(res.NewHistory))
	}

	stored, err := db.History("maya", "u1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(stored) != 0 {
		t.Error("no memory turn should be persisted below the threshold")
	}
}

func TestManageCompactsAtThreshold(t *testing.T) {
	c, db := setupCompactor(t)

	history := longHistory(30)
	res := c.Manage("maya", "u1", history)
	if !res.Cleared {
		t.Fatal("30 turns must trigger compaction")
	}
	if res.Summary == nil {
		t.Fatal("expected a summary")
	}
	if len(res.NewHistory) != 6 {
		t.Fatalf("expected summary turn plus 5 recent turns, got %d", len(res.NewHistory))
	}
	if res.NewHistory[0].Role != models.RoleSystem {
		t.Errorf("expected leading system turn, got %s", res.NewHistory[0].Role)
	}
	if !strings.Contains(res.NewHistory[0].Content, "CONVERSATION MEMORY RESTORED") {
		t.Errorf("summary turn missing heading: %q", res.NewHistory[0].Content)
	}
	for i, want := range history[25:] {
		got := res.NewHistory[i+1]
		if got.Content != want.Content {
			t.Errorf("recent turn %d: expected %q, got %q", i, want.Content, got.Content)
		}
	}

	// The memory turn landed in the store.
	stored, err := db.History("maya", "u1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected exactly the memory turn persisted, got %d", len(stored))
	}
	s, ok := parseMemoryTurn(&stored[0])
	if !ok {
		t.Fatal("persisted turn is not a memory turn")
	}
	if s.WorkerName != "maya" || s.UserID != "u1" {
		t.Errorf("summary identity mismatch: %s/%s", s.WorkerName, s.UserID)
	}
}

// brokenStore fails every write, standing in for a full or broken disk.
type brokenStore struct {
	store.ConversationStore
}

func (b *brokenStore) AppendTurn(turn *models.ConversationTurn) error {
	return errors.New("disk full")
}

func TestManageSurvivesStoreFailure(t *testing.T) {
	_, db := setupCompactor(t)
	c := NewCompactor(&brokenStore{ConversationStore: db}, Limits{})

	res := c.Manage("maya", "u1", longHistory(30))
	if !res.Cleared {
		t.Fatal("compaction must proceed when the memory turn cannot be persisted")
	}
	if len(res.NewHistory) != 6 {
		t.Errorf("expected compacted history of 6 turns, got %d", len(res.NewHistory))
	}
	if res.Summary == nil {
		t.Error("expected a summary despite the store failure")
	}

	stored, err := db.History("maya", "u1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("failed append must not persist anything, got %d turns", len(stored))
	}
}

func TestSummarizeDedupsKeyTasks(t *testing.T) {
	c, _ := setupCompactor(t)

	history := []models.ConversationTurn{
		turn(models.RoleUser, "please build the onboarding flow"),
		turn(models.RoleUser, "please build the onboarding flow"),
		turn(models.RoleAssistant, "✅ Onboarding flow shipped"),
		turn(models.RoleAssistant, "✅ Onboarding flow shipped"),
	}
	s := c.Summarize("maya", "u1", history)
	if len(s.KeyTasks) != 2 {
		t.Errorf("expected 2 deduplicated tasks, got %d: %v", len(s.KeyTasks), s.KeyTasks)
	}
}

func TestSummarizeCaps(t *testing.T) {
	c, _ := setupCompactor(t)

	var history []models.ConversationTurn
	for i := 0; i < 40; i++ {
		history = append(history, turn(models.RoleUser, fmt.Sprintf("build widget variant %c please", 'A'+i%26)))
	}
	s := c.Summarize("maya", "u1", history)
	if len(s.KeyTasks) > 15 {
		t.Errorf("key tasks must be capped at 15, got %d", len(s.KeyTasks))
	}
}

func TestSummarizeDecisions(t *testing.T) {
	c, _ := setupCompactor(t)

	history := []models.ConversationTurn{
		turn(models.RoleAssistant, "Here is my strategic analysis of the rollout.\n**ANALYSIS**: phased launch is lower risk\n**NEXT STEPS**: brief the team"),
	}
	s := c.Summarize("maya", "u1", history)
	if len(s.RecentDecisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d: %v", len(s.RecentDecisions), s.RecentDecisions)
	}
	if !strings.Contains(s.RecentDecisions[0], "ANALYSIS") {
		t.Errorf("unexpected first decision: %q", s.RecentDecisions[0])
	}
}

func TestSummarizeContextKeywords(t *testing.T) {
	c, _ := setupCompactor(t)

	history := []models.ConversationTurn{
		turn(models.RoleUser, "let's redesign the dashboard before launch"),
	}
	s := c.Summarize("maya", "u1", history)
	if s.CurrentContext != "Working on: dashboard, redesign, launch related tasks" {
		t.Errorf("unexpected context: %q", s.CurrentContext)
	}
	if s.WorkflowStage != "dashboard-redesign-launch" {
		t.Errorf("unexpected stage: %q", s.WorkflowStage)
	}
}

func TestSummarizeContextFallbacks(t *testing.T) {
	c, _ := setupCompactor(t)

	// No context keywords: fall back to the latest user turn.
	s := c.Summarize("maya", "u1", []models.ConversationTurn{
		turn(models.RoleUser, "tell me about the weather"),
		turn(models.RoleAssistant, "Sunny."),
	})
	if s.CurrentContext != "Current focus: tell me about the weather" {
		t.Errorf("unexpected context: %q", s.CurrentContext)
	}
	if s.WorkflowStage != "current-task" {
		t.Errorf("unexpected stage: %q", s.WorkflowStage)
	}

	// No user turns at all.
	s = c.Summarize("maya", "u1", []models.ConversationTurn{
		turn(models.RoleAssistant, "Standing by."),
	})
	if s.CurrentContext != "Available for new tasks" {
		t.Errorf("unexpected context: %q", s.CurrentContext)
	}
	if s.WorkflowStage != "ready" {
		t.Errorf("unexpected stage: %q", s.WorkflowStage)
	}
}

func TestRestoreOrderAndEmpty(t *testing.T) {
	c, _ := setupCompactor(t)

	// Cold start: nothing stored, no extras.
	if got := c.Restore("maya", "u1", nil, nil); len(got) != 0 {
		t.Errorf("expected empty restore, got %d turns", len(got))
	}

	// Persist a memory via compaction.
	c.Manage("maya", "u1", longHistory(30))

	knowledge := []KnowledgeEntry{{LearningType: "preference", Category: "layout", Confidence: 0.9}}
	profile := &OptimizationProfile{IntelligenceLevel: 7, MemoryStrength: 0.82, LastOptimization: time.Now()}

	got := c.Restore("maya", "u1", knowledge, profile)
	if len(got) != 3 {
		t.Fatalf("expected 3 context turns, got %d", len(got))
	}
	if !strings.Contains(got[0].Content, "SESSION CONTEXT RESTORED") {
		t.Errorf("first turn should be conversation memory, got %q", got[0].Content)
	}
	if !strings.Contains(got[1].Content, "LEARNED KNOWLEDGE") {
		t.Errorf("second turn should be learned knowledge, got %q", got[1].Content)
	}
	if !strings.Contains(got[2].Content, "WORKER OPTIMIZATION") {
		t.Errorf("third turn should be the optimization profile, got %q", got[2].Content)
	}
	for _, ct := range got {
		if ct.Role != models.RoleSystem {
			t.Errorf("restored turns must be system turns, got %s", ct.Role)
		}
	}
}

func TestRestoreUsesMostRecentMemory(t *testing.T) {
	c, db := setupCompactor(t)

	older, err := memoryTurn(&models.ConversationSummary{
		WorkerName: "maya", UserID: "u1",
		CurrentContext: "old context",
		Timestamp:      time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("memoryTurn failed: %v", err)
	}
	newer, err := memoryTurn(&models.ConversationSummary{
		WorkerName: "maya", UserID: "u1",
		CurrentContext: "new context",
		Timestamp:      time.Now(),
	})
	if err != nil {
		t.Fatalf("memoryTurn failed: %v", err)
	}
	// Insert newest first so recency must come from timestamps, not order.
	if err := db.AppendTurn(newer); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if err := db.AppendTurn(older); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	got := c.Restore("maya", "u1", nil, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 context turn, got %d", len(got))
	}
	if !strings.Contains(got[0].Content, "new context") {
		t.Errorf("expected the most recent memory, got %q", got[0].Content)
	}
}

func TestCleanupKeepsThreeNewestMemories(t *testing.T) {
	c, db := setupCompactor(t)

	base := time.Now().Add(-5 * time.Hour)
	for i := 0; i < 5; i++ {
		mem, err := memoryTurn(&models.ConversationSummary{
			WorkerName: "maya", UserID: "u1",
			CurrentContext: fmt.Sprintf("context %d", i),
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("memoryTurn failed: %v", err)
		}
		if err := db.AppendTurn(mem); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}
	// An ordinary turn must never be cleaned up.
	ordinary := turn(models.RoleUser, "hello")
	if err := db.AppendTurn(&ordinary); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	deleted, err := c.Cleanup("maya", "u1")
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deletions, got %d", deleted)
	}

	stored, err := db.History("maya", "u1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	memories := 0
	ordinaryKept := false
	for i := range stored {
		if s, ok := parseMemoryTurn(&stored[i]); ok {
			memories++
			if s.CurrentContext == "context 0" || s.CurrentContext == "context 1" {
				t.Errorf("oldest memory survived cleanup: %q", s.CurrentContext)
			}
		} else {
			ordinaryKept = true
		}
	}
	if memories != 3 {
		t.Errorf("expected 3 memories retained, got %d", memories)
	}
	if !ordinaryKept {
		t.Error("ordinary turn must survive cleanup")
	}
}
