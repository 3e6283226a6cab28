package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// fakeDispatcher replies for every worker except those listed in fail.
type fakeDispatcher struct {
	fail     map[string]bool
	messages []string
	convIDs  []string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, workerName, conversationID, message string) (string, error) {
	f.messages = append(f.messages, message)
	f.convIDs = append(f.convIDs, conversationID)
	if f.fail[workerName] {
		return "", errors.New("worker offline")
	}
	return fmt.Sprintf("%s: done", workerName), nil
}

func testWorkflow() *models.DetectedWorkflow {
	return &models.DetectedWorkflow{
		Name:                     "Launch Readiness Audit",
		Description:              "Coordinator created workflow: Launch Readiness Audit",
		Workers:                  []string{"aria", "victoria", "zara"},
		Priority:                 models.PriorityCritical,
		EstimatedDurationMinutes: 90,
		CustomRequirements:       []string{"Design consistency validation"},
	}
}

func TestStageAssignsIdentity(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	wf := s.Stage(testWorkflow())
	if !strings.HasPrefix(wf.ID, "wf-") {
		t.Errorf("expected wf- prefixed id, got %q", wf.ID)
	}
	if wf.Status != models.WorkflowStaged {
		t.Errorf("expected staged status, got %s", wf.Status)
	}
	if wf.DetectedAt.IsZero() {
		t.Error("expected DetectedAt to be set")
	}

	got, err := s.Get(wf.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Launch Readiness Audit" {
		t.Errorf("unexpected name %q", got.Name)
	}
}

func TestListStagedWindow(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	old := s.Stage(testWorkflow())

	s.now = func() time.Time { return base.Add(1 * time.Hour) }
	fresh := s.Stage(testWorkflow())

	s.now = func() time.Time { return base.Add(2*time.Hour + time.Minute) }
	listed := s.ListStaged()
	if len(listed) != 1 {
		t.Fatalf("expected only the fresh workflow listed, got %d", len(listed))
	}
	if listed[0].ID != fresh.ID {
		t.Errorf("expected %s listed, got %s", fresh.ID, listed[0].ID)
	}

	// The aged-out record is still retrievable until Sweep.
	if _, err := s.Get(old.ID); err != nil {
		t.Errorf("expected aged record to remain gettable: %v", err)
	}
}

func TestExecutePartialFailure(t *testing.T) {
	disp := &fakeDispatcher{fail: map[string]bool{"victoria": true}}
	s := NewStager(disp, 0)

	wf := s.Stage(testWorkflow())
	res, err := s.Execute(context.Background(), wf.ID)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Errorf("expected 2 succeeded / 1 failed, got %d/%d", res.Succeeded, res.Failed)
	}
	if len(res.Results) != 3 {
		t.Fatalf("expected a result per worker, got %d", len(res.Results))
	}
	for _, r := range res.Results {
		if r.WorkerName == "victoria" {
			if r.OK {
				t.Error("victoria's dispatch should have failed")
			}
			if !strings.Contains(r.Summary, "worker offline") {
				t.Errorf("expected failure summary to carry the error, got %q", r.Summary)
			}
		} else if !r.OK {
			t.Errorf("%s should have succeeded", r.WorkerName)
		}
	}

	// Partial failure still counts as executed.
	got, err := s.Get(wf.ID)
	if err != nil {
		t.Fatalf("Get after execute failed: %v", err)
	}
	if got.Status != models.WorkflowExecuted {
		t.Errorf("expected executed status, got %s", got.Status)
	}
	if len(s.ListStaged()) != 0 {
		t.Error("executed workflow must leave the staged list")
	}
	if len(s.Executed()) != 1 {
		t.Error("executed workflow must appear in history")
	}

	// Every worker received the task text with the workflow name.
	for _, msg := range disp.messages {
		if !strings.Contains(msg, "Launch Readiness Audit") {
			t.Errorf("task message missing workflow name: %q", msg)
		}
	}
	// Each dispatch got its own conversation id.
	seen := map[string]bool{}
	for _, id := range disp.convIDs {
		if seen[id] {
			t.Errorf("conversation id reused: %s", id)
		}
		seen[id] = true
	}
}

func TestExecuteUnknownWorkflow(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	_, err := s.Execute(context.Background(), "wf-missing")
	if !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
}

func TestExecuteTwiceRejected(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	wf := s.Stage(testWorkflow())
	if _, err := s.Execute(context.Background(), wf.ID); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	// The record moved to history, so a second attempt sees it gone from
	// staging.
	_, err := s.Execute(context.Background(), wf.ID)
	if !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound on re-execution, got %v", err)
	}
}

func TestExecuteExpiredRejected(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	wf := s.Stage(testWorkflow())

	s.now = func() time.Time { return base.Add(3 * time.Hour) }
	s.Sweep()

	_, err := s.Execute(context.Background(), wf.ID)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("expected ErrAlreadyProcessed for expired workflow, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	wf := s.Stage(testWorkflow())
	if !s.Remove(wf.ID) {
		t.Error("expected Remove to find the workflow")
	}
	if s.Remove(wf.ID) {
		t.Error("expected second Remove to report missing")
	}
	if _, err := s.Get(wf.ID); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound after removal, got %v", err)
	}
}

func TestExecutedHistoryMostRecentFirst(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	first := s.Stage(testWorkflow())
	if _, err := s.Execute(context.Background(), first.ID); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	s.now = func() time.Time { return base.Add(time.Hour) }
	second := s.Stage(testWorkflow())
	if _, err := s.Execute(context.Background(), second.ID); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	hist := s.Executed()
	if len(hist) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(hist))
	}
	if hist[0].ID != second.ID {
		t.Errorf("expected most recent execution first, got %s", hist[0].ID)
	}

	s.ClearExecuted()
	if len(s.Executed()) != 0 {
		t.Error("expected history cleared")
	}
}

func TestSweepDeletesDayOldWorkflows(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	old := s.Stage(testWorkflow())

	s.now = func() time.Time { return base.Add(22 * time.Hour) }
	recent := s.Stage(testWorkflow())

	s.now = func() time.Time { return base.Add(25 * time.Hour) }
	if deleted := s.Sweep(); deleted != 1 {
		t.Errorf("expected 1 deletion, got %d", deleted)
	}
	if _, err := s.Get(old.ID); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected day-old workflow deleted, got %v", err)
	}

	// The younger record survives but has aged past the listing window.
	got, err := s.Get(recent.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.WorkflowExpired {
		t.Errorf("expected expired status, got %s", got.Status)
	}
}

func TestCurrentStats(t *testing.T) {
	s := NewStager(&fakeDispatcher{}, 0)

	s.Stage(testWorkflow())
	wf := s.Stage(testWorkflow())
	if _, err := s.Execute(context.Background(), wf.ID); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	stats := s.CurrentStats()
	if stats.Staged != 1 || stats.Executed != 1 {
		t.Errorf("expected 1 staged / 1 executed, got %+v", stats)
	}
	if stats.DispatchesSucceeded != 3 || stats.DispatchesFailed != 0 {
		t.Errorf("expected 3/0 dispatches, got %+v", stats)
	}
}

func TestExcerptKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("prüfung läuft ✓ ", 20)
	got := excerpt(long, 100)
	if !utf8.ValidString(got) {
		t.Errorf("excerpt produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 103 {
		t.Errorf("expected 100 runes plus ellipsis, got %d", n)
	}

	if excerpt("short", 100) != "short" {
		t.Error("short strings should pass through untouched")
	}

	// Exactly n runes but more than n bytes stays untouched.
	exact := strings.Repeat("ü", 100)
	if excerpt(exact, 100) != exact {
		t.Error("n-rune string should pass through untouched")
	}
}
