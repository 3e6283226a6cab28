package memory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Marker is the reserved content prefix that distinguishes persisted
// memory turns from ordinary conversation turns.
const Marker = "**CONVERSATION_MEMORY**"

// memoryTurn renders a summary as the special system turn the store keeps
// alongside ordinary turns.
func memoryTurn(s *models.ConversationSummary) (*models.ConversationTurn, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return &models.ConversationTurn{
		WorkerName: s.WorkerName,
		UserID:     s.UserID,
		Role:       models.RoleSystem,
		Content:    Marker + "\n" + string(payload),
		Timestamp:  s.Timestamp,
	}, nil
}

// parseMemoryTurn decodes a memory turn back into its summary. The second
// return value is false for ordinary turns.
func parseMemoryTurn(t *models.ConversationTurn) (*models.ConversationSummary, bool) {
	if t.Role != models.RoleSystem || !strings.HasPrefix(t.Content, Marker) {
		return nil, false
	}
	payload := strings.TrimPrefix(t.Content, Marker)
	payload = strings.TrimPrefix(payload, "\n")

	var s models.ConversationSummary
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, false
	}
	return &s, true
}

// IsMemoryTurn reports whether a turn is a persisted memory turn rather
// than conversation content. Callers building prompts should skip these.
func IsMemoryTurn(t *models.ConversationTurn) bool {
	_, ok := parseMemoryTurn(t)
	return ok
}
