package models

import "time"

// WorkflowStatus represents the lifecycle state of a detected workflow.
type WorkflowStatus string

const (
	// WorkflowStaged indicates the workflow awaits operator approval.
	WorkflowStaged WorkflowStatus = "staged"
	// WorkflowExecuting indicates dispatches are in flight.
	WorkflowExecuting WorkflowStatus = "executing"
	// WorkflowExecuted indicates the dispatch loop completed.
	WorkflowExecuted WorkflowStatus = "executed"
	// WorkflowFailed indicates execution could not complete.
	WorkflowFailed WorkflowStatus = "failed"
	// WorkflowExpired indicates the workflow aged out before approval.
	WorkflowExpired WorkflowStatus = "expired"
)

// Valid returns true if the status is a known value.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStaged, WorkflowExecuting, WorkflowExecuted, WorkflowFailed, WorkflowExpired:
		return true
	default:
		return false
	}
}

// DetectedWorkflow is a multi-worker plan extracted from the coordinating
// worker's free-form text, staged for operator approval.
type DetectedWorkflow struct {
	// ID is the generated workflow identifier.
	ID string `json:"id"`
	// Name is the extracted or default workflow title.
	Name string `json:"name"`
	// Description summarizes the workflow for the operator.
	Description string `json:"description"`
	// Workers is the ordered, deduplicated list of worker names involved.
	Workers []string `json:"workers"`
	// Priority is the extracted or default priority.
	Priority TaskPriority `json:"priority"`
	// EstimatedDurationMinutes is the extracted or default duration.
	EstimatedDurationMinutes int `json:"estimated_duration_minutes"`
	// CustomRequirements holds up to five extracted requirement lines.
	CustomRequirements []string `json:"custom_requirements"`
	// DetectedAt is when the workflow was extracted.
	DetectedAt time.Time `json:"detected_at"`
	// Status is the current lifecycle state.
	Status WorkflowStatus `json:"status"`
	// ConversationID optionally links back to the source conversation.
	ConversationID string `json:"conversation_id,omitempty"`
}

// Clone returns a deep copy of the workflow record.
func (w *DetectedWorkflow) Clone() *DetectedWorkflow {
	c := *w
	c.Workers = append([]string(nil), w.Workers...)
	c.CustomRequirements = append([]string(nil), w.CustomRequirements...)
	return &c
}
