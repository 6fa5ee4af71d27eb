// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides conversation/message/user persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// listLimit caps conversation listings; the UI only shows recent history.
const listLimit = 50

// timeFormat is RFC3339 with fixed-width nanoseconds so stored timestamps
// compare lexicographically in ORDER BY clauses.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Foreign keys must be on for cascading deletes to work
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			user_email TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_user_agent
			ON conversations(user_email, agent_id);

		CREATE INDEX IF NOT EXISTS idx_conversations_updated
			ON conversations(updated_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sources TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
			ON messages(conversation_id, created_at);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// ListConversations retrieves conversations owned by userEmail, optionally
// filtered to a single agent, ordered by most recent activity. Each result
// carries a computed message count. Results are capped at 50.
func (s *SQLiteStore) ListConversations(ctx context.Context, userEmail, agentID string) ([]*Conversation, error) {
	if userEmail == "" {
		return nil, fmt.Errorf("%w: user email is required", ErrValidation)
	}

	query := `
		SELECT c.id, c.user_email, c.agent_id, c.title, c.created_at, c.updated_at,
		       COUNT(m.id) AS message_count
		FROM conversations c
		LEFT JOIN messages m ON c.id = m.conversation_id
		WHERE c.user_email = ?
	`
	args := []any{userEmail}

	if agentID != "" {
		query += ` AND c.agent_id = ?`
		args = append(args, agentID)
	}

	query += `
		GROUP BY c.id
		ORDER BY c.updated_at DESC
		LIMIT ?
	`
	args = append(args, listLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		var conv Conversation
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(
			&conv.ID,
			&conv.UserEmail,
			&conv.AgentID,
			&conv.Title,
			&createdAtStr,
			&updatedAtStr,
			&conv.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}

		if err := parseTimes(&conv, createdAtStr, updatedAtStr); err != nil {
			return nil, err
		}

		conversations = append(conversations, &conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}

	return conversations, nil
}

// CreateConversation inserts a new conversation row and returns the created
// record. An empty title falls back to DefaultTitle.
func (s *SQLiteStore) CreateConversation(ctx context.Context, userEmail, agentID, title string) (*Conversation, error) {
	if userEmail == "" || agentID == "" {
		return nil, fmt.Errorf("%w: user email and agent id are required", ErrValidation)
	}

	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:        uuid.New().String(),
		UserEmail: userEmail,
		AgentID:   agentID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO conversations (id, user_email, agent_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ID,
		conv.UserEmail,
		conv.AgentID,
		conv.Title,
		conv.CreatedAt.Format(timeFormat),
		conv.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", conv.ID, "user", userEmail, "agent", agentID)
	return conv, nil
}

// GetConversation retrieves a conversation by ID.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, user_email, agent_id, title, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`

	var conv Conversation
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&conv.ID,
		&conv.UserEmail,
		&conv.AgentID,
		&conv.Title,
		&createdAtStr,
		&updatedAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	if err := parseTimes(&conv, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &conv, nil
}

// RenameConversation updates a conversation's title and bumps updated_at.
// The title is trimmed; empty or whitespace-only titles are rejected with
// ErrValidation. Returns ErrNotFound if no row matches the id.
func (s *SQLiteStore) RenameConversation(ctx context.Context, id, title string) (*Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	query := `UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, title, time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return nil, fmt.Errorf("updating conversation title: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	s.logger.Debug("renamed conversation", "id", id, "title", title)
	return s.GetConversation(ctx, id)
}

// DeleteConversation removes a conversation and, via the foreign key cascade,
// all of its messages. Deleting a non-existent id is not an error.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	s.logger.Debug("deleted conversation", "id", id)
	return nil
}

// parseTimes fills a conversation's timestamp fields from their stored form
func parseTimes(conv *Conversation, createdAtStr, updatedAtStr string) error {
	var err error
	conv.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	conv.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}
	return nil
}
