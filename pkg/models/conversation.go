package models

import "time"

// TurnRole identifies the author of a conversation turn.
type TurnRole string

const (
	// RoleUser is a turn authored by the user.
	RoleUser TurnRole = "user"
	// RoleAssistant is a turn authored by the worker.
	RoleAssistant TurnRole = "assistant"
	// RoleSystem is a synthetic context turn.
	RoleSystem TurnRole = "system"
)

// Valid returns true if the role is a known value.
func (r TurnRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// ConversationTurn is one message in a per-(worker, user) history.
// Turns are append-only; the store assigns the ID on append.
type ConversationTurn struct {
	// ID is the store-assigned turn identifier (0 before append).
	ID int64 `json:"id"`
	// WorkerName identifies the worker side of the conversation.
	WorkerName string `json:"worker_name"`
	// UserID identifies the user side of the conversation.
	UserID string `json:"user_id"`
	// Role is the turn author.
	Role TurnRole `json:"role"`
	// Content is the turn text.
	Content string `json:"content"`
	// Timestamp is when the turn was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSummary is the compact memory record the compactor writes
// when a conversation history crosses the length threshold. Later summaries
// supersede earlier ones; consumers read the most recent by timestamp.
type ConversationSummary struct {
	// WorkerName identifies the worker side of the conversation.
	WorkerName string `json:"worker_name"`
	// UserID identifies the user side of the conversation.
	UserID string `json:"user_id"`
	// KeyTasks holds deduplicated task strings, capped at 15.
	KeyTasks []string `json:"key_tasks"`
	// RecentDecisions holds extracted decision lines, capped at 8.
	RecentDecisions []string `json:"recent_decisions"`
	// CurrentContext is a one-line restatement of the conversation focus.
	CurrentContext string `json:"current_context"`
	// WorkflowStage labels the phase the conversation is in.
	WorkflowStage string `json:"workflow_stage"`
	// Timestamp is when the summary was produced.
	Timestamp time.Time `json:"timestamp"`
}
