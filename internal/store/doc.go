// Package store provides persistent storage for deskhub using SQLite.
//
// # Data Models
//
//   - Conversation: titled thread scoped to one user and one agent; its
//     message count is computed at read time, never stored
//   - Message: immutable entry in a conversation's history, with optional
//     citation sources serialized as JSON
//   - User: staff account with a bcrypt password hash, used by login
//
// Conversations own their messages exclusively: deleting a conversation
// cascades to its messages via the foreign key, and no operation mutates or
// removes an individual message.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created automatically when the store is opened.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrValidation: required input missing or malformed
//   - ErrDuplicateUser: account email already registered
//
// All methods accept context.Context for cancellation support.
package store
