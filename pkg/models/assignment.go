package models

import "time"

// AssignmentStatus represents the lifecycle state of an assignment.
type AssignmentStatus string

const (
	// AssignmentAssigned indicates the task has been bound to a worker.
	AssignmentAssigned AssignmentStatus = "assigned"
	// AssignmentInProgress indicates the worker has started the task.
	AssignmentInProgress AssignmentStatus = "in-progress"
	// AssignmentCompleted indicates the task finished successfully.
	AssignmentCompleted AssignmentStatus = "completed"
	// AssignmentFailed indicates the task finished unsuccessfully.
	AssignmentFailed AssignmentStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentAssigned, AssignmentInProgress, AssignmentCompleted, AssignmentFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status ends the assignment lifecycle.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompleted || s == AssignmentFailed
}

// Assignment binds one task to one worker. It is owned by the registry
// until it reaches a terminal status, then moves to the immutable history.
type Assignment struct {
	// TaskID is the id of the assigned task (1:1 with the task).
	TaskID string `json:"task_id"`
	// WorkerName is the worker the task was bound to.
	WorkerName string `json:"worker_name"`
	// Confidence is the allocator's score for this binding (0-100).
	Confidence float64 `json:"confidence"`
	// EstimatedDurationMinutes is the allocator's duration estimate.
	EstimatedDurationMinutes float64 `json:"estimated_duration_minutes"`
	// AssignedAt is when the binding was made.
	AssignedAt time.Time `json:"assigned_at"`
	// Status is the current lifecycle state.
	Status AssignmentStatus `json:"status"`
}
