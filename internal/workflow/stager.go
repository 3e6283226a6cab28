package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// ErrWorkflowNotFound is returned when the workflow id is unknown.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrAlreadyProcessed is returned when execution is requested for a
// workflow that already left the staged state.
var ErrAlreadyProcessed = errors.New("workflow already processed")

const (
	// stagedWindow is how long a staged workflow stays listed for approval.
	stagedWindow = 2 * time.Hour
	// sweepAge is how old a workflow must be before Sweep deletes it.
	sweepAge = 24 * time.Hour
	// DefaultDispatchTimeout bounds each per-worker dispatch during
	// execution.
	DefaultDispatchTimeout = 30 * time.Second
)

// Dispatcher delivers a workflow task to one worker and returns the
// worker's reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, workerName, conversationID, message string) (string, error)
}

// WorkerDispatchResult records the outcome of one worker dispatch during
// workflow execution.
type WorkerDispatchResult struct {
	// WorkerName is the dispatched worker.
	WorkerName string `json:"worker_name"`
	// OK reports whether the dispatch succeeded.
	OK bool `json:"ok"`
	// Summary is a short excerpt of the worker's reply, or the error text.
	Summary string `json:"summary"`
	// Duration is how long the dispatch took.
	Duration time.Duration `json:"duration"`
}

// ExecutionResult is the aggregate outcome of executing one workflow.
type ExecutionResult struct {
	// WorkflowID identifies the executed workflow.
	WorkflowID string `json:"workflow_id"`
	// Name is the workflow title.
	Name string `json:"name"`
	// Results holds one entry per dispatched worker, in dispatch order.
	Results []WorkerDispatchResult `json:"results"`
	// Succeeded counts successful dispatches.
	Succeeded int `json:"succeeded"`
	// Failed counts failed dispatches.
	Failed int `json:"failed"`
}

// Stats summarizes the stager's current state and dispatch record.
type Stats struct {
	Staged   int `json:"staged"`
	Executed int `json:"executed"`
	// DispatchesSucceeded and DispatchesFailed count individual worker
	// dispatches across all executed workflows.
	DispatchesSucceeded int `json:"dispatches_succeeded"`
	DispatchesFailed    int `json:"dispatches_failed"`
}

// Stager holds detected workflows between detection and operator-approved
// execution. All methods are safe for concurrent use; the dispatch loop
// inside Execute runs outside the lock so staging is never blocked behind
// slow workers.
type Stager struct {
	mu         sync.Mutex
	staged     map[string]*models.DetectedWorkflow
	executed   map[string]*models.DetectedWorkflow
	dispatcher Dispatcher
	timeout    time.Duration
	// Logf receives debug output when set; nil disables logging.
	Logf func(format string, args ...any)
	// now is swappable for tests.
	now func() time.Time

	dispatchOK   int
	dispatchFail int
}

// NewStager creates a stager that executes workflows through the given
// dispatcher. A zero timeout falls back to DefaultDispatchTimeout.
func NewStager(dispatcher Dispatcher, timeout time.Duration) *Stager {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Stager{
		staged:     make(map[string]*models.DetectedWorkflow),
		executed:   make(map[string]*models.DetectedWorkflow),
		dispatcher: dispatcher,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (s *Stager) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

// Stage registers a detected workflow for later execution, assigning its
// id, timestamp, and staged status. The returned copy reflects the stored
// record.
func (s *Stager) Stage(wf *models.DetectedWorkflow) *models.DetectedWorkflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := wf.Clone()
	stored.ID = "wf-" + uuid.New().String()[:8]
	stored.DetectedAt = s.now()
	stored.Status = models.WorkflowStaged
	s.staged[stored.ID] = stored

	s.logf("staged workflow %s (%s) with %d workers", stored.ID, stored.Name, len(stored.Workers))
	return stored.Clone()
}

// ListStaged returns copies of staged workflows detected within the last
// two hours, newest first. Older records stay stored until Sweep but are
// no longer offered for execution.
func (s *Stager) ListStaged() []*models.DetectedWorkflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-stagedWindow)
	var out []*models.DetectedWorkflow
	for _, wf := range s.staged {
		if wf.Status == models.WorkflowStaged && wf.DetectedAt.After(cutoff) {
			out = append(out, wf.Clone())
		}
	}
	sortByDetectedAtDesc(out)
	return out
}

// Get returns a copy of the workflow with the given id, staged or
// executed.
func (s *Stager) Get(id string) (*models.DetectedWorkflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wf, ok := s.staged[id]; ok {
		return wf.Clone(), nil
	}
	if wf, ok := s.executed[id]; ok {
		return wf.Clone(), nil
	}
	return nil, fmt.Errorf("get workflow %s: %w", id, ErrWorkflowNotFound)
}

// Execute dispatches the staged workflow to each of its workers in order.
// Each dispatch gets its own timeout; a failed dispatch is recorded and
// the loop continues, so one slow or broken worker does not sink the
// rest. The workflow ends executed even on partial failure, with the
// per-worker outcomes in the result. Executing a workflow that already
// left the staged state returns ErrAlreadyProcessed.
func (s *Stager) Execute(ctx context.Context, id string) (*ExecutionResult, error) {
	s.mu.Lock()
	wf, ok := s.staged[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("execute workflow %s: %w", id, ErrWorkflowNotFound)
	}
	if wf.Status != models.WorkflowStaged {
		status := wf.Status
		s.mu.Unlock()
		return nil, fmt.Errorf("execute workflow %s: status %s: %w", id, status, ErrAlreadyProcessed)
	}
	wf.Status = models.WorkflowExecuting
	task := workerTaskMessage(wf)
	workers := append([]string(nil), wf.Workers...)
	name := wf.Name
	s.mu.Unlock()

	s.logf("executing workflow %s (%s): %s", id, name, strings.Join(workers, ", "))

	result := &ExecutionResult{WorkflowID: id, Name: name}
	for _, worker := range workers {
		convID := fmt.Sprintf("workflow-%s-%s-%d", id, worker, s.now().UnixMilli())

		start := s.now()
		dispatchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		reply, err := s.dispatcher.Dispatch(dispatchCtx, worker, convID, task)
		cancel()
		elapsed := s.now().Sub(start)

		if err != nil {
			s.logf("dispatch to %s failed: %v", worker, err)
			result.Results = append(result.Results, WorkerDispatchResult{
				WorkerName: worker,
				Summary:    fmt.Sprintf("dispatch failed: %v", err),
				Duration:   elapsed,
			})
			result.Failed++
			continue
		}
		result.Results = append(result.Results, WorkerDispatchResult{
			WorkerName: worker,
			OK:         true,
			Summary:    excerpt(reply, 100),
			Duration:   elapsed,
		})
		result.Succeeded++
	}

	s.mu.Lock()
	wf.Status = models.WorkflowExecuted
	wf.DetectedAt = s.now()
	s.executed[id] = wf
	delete(s.staged, id)
	s.dispatchOK += result.Succeeded
	s.dispatchFail += result.Failed
	s.mu.Unlock()

	s.logf("workflow %s done: %d succeeded, %d failed", id, result.Succeeded, result.Failed)
	return result, nil
}

// Remove deletes a staged workflow, reporting whether it existed.
func (s *Stager) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.staged[id]; !ok {
		return false
	}
	delete(s.staged, id)
	s.logf("removed workflow %s", id)
	return true
}

// Executed returns copies of executed workflows, most recent first.
func (s *Stager) Executed() []*models.DetectedWorkflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.DetectedWorkflow, 0, len(s.executed))
	for _, wf := range s.executed {
		out = append(out, wf.Clone())
	}
	sortByDetectedAtDesc(out)
	return out
}

// ClearExecuted drops the execution history.
func (s *Stager) ClearExecuted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed = make(map[string]*models.DetectedWorkflow)
}

// Sweep ages out stale staged workflows: records past the listing window
// are marked expired, and records older than a day are deleted outright.
// It returns the number of deleted workflows.
func (s *Stager) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	deleted := 0
	for id, wf := range s.staged {
		age := now.Sub(wf.DetectedAt)
		switch {
		case age > sweepAge:
			delete(s.staged, id)
			deleted++
			s.logf("swept workflow %s (%s)", id, wf.Name)
		case age > stagedWindow && wf.Status == models.WorkflowStaged:
			wf.Status = models.WorkflowExpired
		}
	}
	return deleted
}

// CurrentStats reports how many workflows are staged and executed, and
// the dispatch success record so far.
func (s *Stager) CurrentStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Staged:              len(s.staged),
		Executed:            len(s.executed),
		DispatchesSucceeded: s.dispatchOK,
		DispatchesFailed:    s.dispatchFail,
	}
}

// workerTaskMessage renders the dispatch text each worker receives.
func workerTaskMessage(wf *models.DetectedWorkflow) string {
	return fmt.Sprintf(`You have been assigned to execute workflow: %q

Description: %s
Priority: %s
Requirements: %s

Please execute your part of this workflow immediately.`,
		wf.Name, wf.Description, wf.Priority, strings.Join(wf.CustomRequirements, ", "))
}

// excerpt truncates s to at most n bytes, appending an ellipsis when cut.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func sortByDetectedAtDesc(wfs []*models.DetectedWorkflow) {
	sort.Slice(wfs, func(i, j int) bool {
		return wfs[i].DetectedAt.After(wfs[j].DetectedAt)
	})
}
