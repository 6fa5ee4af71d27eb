// ABOUTME: Store interface and data types for deskhub persistence
// ABOUTME: Defines Conversation, Message, Source structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when required input is missing or malformed
var ErrValidation = errors.New("validation failed")

// DefaultTitle is used when a conversation is created without an explicit title.
const DefaultTitle = "새 대화"

// Role constants for message authorship
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a titled thread of messages scoped to one user and one agent
type Conversation struct {
	ID        string
	UserEmail string
	AgentID   string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// MessageCount is computed at read time by joining against messages.
	// It is only populated by ListConversations.
	MessageCount int
}

// Source is citation metadata attached to an assistant message
type Source struct {
	FileName   string `json:"fileName"`
	FileFormat string `json:"fileFormat"`
	Page       int    `json:"page"`
	Department string `json:"department"`
	Manager    string `json:"manager"`
	URL        string `json:"url,omitempty"`
}

// Message is a single immutable message within a conversation.
// Sources is nil for user-role messages.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Sources        []Source
	CreatedAt      time.Time
}

// User is a staff account that can log in and own conversations
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Store defines the interface for conversation, message, and user persistence
type Store interface {
	// Conversations
	ListConversations(ctx context.Context, userEmail, agentID string) ([]*Conversation, error)
	CreateConversation(ctx context.Context, userEmail, agentID, title string) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	RenameConversation(ctx context.Context, id, title string) (*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// Messages (append-only; individual messages are never updated or deleted)
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)
	AppendMessage(ctx context.Context, conversationID, role, content string, sources []Source) (*Message, error)

	// Users
	CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Close releases any resources held by the store
	Close() error
}
