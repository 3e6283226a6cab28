package store

import (
	"io"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// ConversationStore defines the persistence surface the coordinator and
// compactor need. The interface keeps them independent of the concrete
// SQLite implementation.
type ConversationStore interface {
	io.Closer
	Migrator
	AppendTurn(t *models.ConversationTurn) error
	History(workerName, userID string) ([]models.ConversationTurn, error)
	ReplaceHistory(workerName, userID string, turns []models.ConversationTurn) error
	DeleteTurn(id int64) error
	Conversations() ([][2]string, error)
}

// Compile-time verification that DB implements the interfaces.
var (
	_ ConversationStore = (*DB)(nil)
	_ Migrator          = (*DB)(nil)
)
