package store

import (
	"fmt"
	"time"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// AppendTurn inserts a turn at the end of its conversation and fills in
// the store-assigned id.
func (db *DB) AppendTurn(t *models.ConversationTurn) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	res, err := db.conn.Exec(`
		INSERT INTO turns (worker_name, user_id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		t.WorkerName, t.UserID, string(t.Role), t.Content, formatTime(t.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append turn id: %w", err)
	}
	t.ID = id
	return nil
}

// History returns all turns of one (worker, user) conversation in append
// order.
func (db *DB) History(workerName, userID string) ([]models.ConversationTurn, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, worker_name, user_id, role, content, timestamp
		FROM turns
		WHERE worker_name = ? AND user_id = ?
		ORDER BY id`,
		workerName, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		var role, ts string
		if err := rows.Scan(&t.ID, &t.WorkerName, &t.UserID, &role, &t.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = models.TurnRole(role)
		if t.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse turn timestamp: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ReplaceHistory atomically swaps the stored conversation for the given
// turns, reassigning ids in order. Compaction keeps the full stored
// history and only trims the in-memory window; this is for operator
// tooling that rewrites a conversation outright.
func (db *DB) ReplaceHistory(workerName, userID string, turns []models.ConversationTurn) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}

	if _, err := tx.Exec(
		"DELETE FROM turns WHERE worker_name = ? AND user_id = ?",
		workerName, userID,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear history: %w", err)
	}

	for i := range turns {
		t := &turns[i]
		if t.Timestamp.IsZero() {
			t.Timestamp = time.Now()
		}
		res, err := tx.Exec(`
			INSERT INTO turns (worker_name, user_id, role, content, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
			workerName, userID, string(t.Role), t.Content, formatTime(t.Timestamp),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert replacement turn: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			tx.Rollback()
			return fmt.Errorf("replacement turn id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// DeleteTurn removes one turn by id.
func (db *DB) DeleteTurn(id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec("DELETE FROM turns WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete turn %d: %w", id, err)
	}
	return nil
}

// Conversations lists the distinct (worker, user) pairs with stored turns.
func (db *DB) Conversations() ([][2]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(
		"SELECT DISTINCT worker_name, user_id FROM turns ORDER BY worker_name, user_id",
	)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var p [2]string
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
