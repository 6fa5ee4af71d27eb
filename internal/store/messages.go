// ABOUTME: SQLite message log operations for the deskhub store
// ABOUTME: Append-only per-conversation history with JSON-serialized sources

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListMessages retrieves the full message history for a conversation, ordered
// by created_at ascending. Conversations are bounded in practice, so there is
// no pagination.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, sources, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var sourcesJSON sql.NullString
		var createdAtStr string

		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&sourcesJSON,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("parsing sources for message %s: %w", msg.ID, err)
			}
		}

		msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// AppendMessage inserts a message and bumps the parent conversation's
// updated_at. Both statements run in one transaction so history and the
// conversation timestamp can't diverge. Returns ErrNotFound if the
// conversation doesn't exist.
func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID, role, content string, sources []Source) (*Message, error) {
	if role == "" || content == "" {
		return nil, fmt.Errorf("%w: role and content are required", ErrValidation)
	}
	if role != RoleUser && role != RoleAssistant {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	var sourcesJSON sql.NullString
	if sources != nil {
		data, err := json.Marshal(sources)
		if err != nil {
			return nil, fmt.Errorf("serializing sources: %w", err)
		}
		sourcesJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()
	msg := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Sources:        sources,
		CreatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		sourcesJSON,
		msg.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now.Format(timeFormat), conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("bumping conversation timestamp: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message append: %w", err)
	}

	s.logger.Debug("appended message", "id", msg.ID, "conversation", conversationID, "role", role)
	return msg, nil
}

// isForeignKeyViolation checks if the error is a SQLite foreign key failure
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}
