package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStore_CreateConversation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "창고 재고 문의")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, "kim@ywstorage.co.kr", conv.UserEmail)
	assert.Equal(t, "agent1", conv.AgentID)
	assert.Equal(t, "창고 재고 문의", conv.Title)
	assert.False(t, conv.CreatedAt.IsZero())
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)
}

func TestStore_CreateConversation_DefaultTitle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, conv.Title)

	// Whitespace-only titles also fall back to the default
	conv, err = store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "   ")
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, conv.Title)
}

func TestStore_CreateConversation_MissingFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreateConversation(ctx, "", "agent1", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.CreateConversation(ctx, "kim@ywstorage.co.kr", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStore_ListConversations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)

	// A different user and a different agent should not show up
	_, err = store.CreateConversation(ctx, "lee@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)
	_, err = store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent2", "")
	require.NoError(t, err)

	conversations, err := store.ListConversations(ctx, "kim@ywstorage.co.kr", "agent1")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, created.ID, conversations[0].ID)
	assert.Equal(t, 0, conversations[0].MessageCount)

	// Without an agent filter, both of the user's conversations appear
	conversations, err = store.ListConversations(ctx, "kim@ywstorage.co.kr", "")
	require.NoError(t, err)
	assert.Len(t, conversations, 2)
}

func TestStore_ListConversations_MissingEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.ListConversations(ctx, "", "agent1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStore_ListConversations_MessageCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.AppendMessage(ctx, conv.ID, RoleUser, fmt.Sprintf("message %d", i), nil)
		require.NoError(t, err)
	}

	conversations, err := store.ListConversations(ctx, "kim@ywstorage.co.kr", "agent1")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, 3, conversations[0].MessageCount)
}

func TestStore_ListConversations_OrderedByActivity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "first")
	require.NoError(t, err)
	second, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "second")
	require.NoError(t, err)

	// Touching the older conversation should move it to the front
	_, err = store.AppendMessage(ctx, first.ID, RoleUser, "hello again", nil)
	require.NoError(t, err)

	conversations, err := store.ListConversations(ctx, "kim@ywstorage.co.kr", "agent1")
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, first.ID, conversations[0].ID)
	assert.Equal(t, second.ID, conversations[1].ID)
}

func TestStore_RenameConversation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)

	renamed, err := store.RenameConversation(ctx, conv.ID, "  배송 일정 문의  ")
	require.NoError(t, err)
	assert.Equal(t, "배송 일정 문의", renamed.Title)
	assert.True(t, renamed.UpdatedAt.After(conv.UpdatedAt), "rename should bump updated_at")

	// Reflected in subsequent listings
	conversations, err := store.ListConversations(ctx, "kim@ywstorage.co.kr", "agent1")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "배송 일정 문의", conversations[0].Title)
}

func TestStore_RenameConversation_EmptyTitle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)

	_, err = store.RenameConversation(ctx, conv.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.RenameConversation(ctx, conv.ID, "   \t ")
	assert.ErrorIs(t, err, ErrValidation)

	// Original title untouched
	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, got.Title)
}

func TestStore_RenameConversation_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.RenameConversation(ctx, "nonexistent", "new title")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteConversation_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteConversation(ctx, conv.ID))

	// Deleting again is not an error
	require.NoError(t, store.DeleteConversation(ctx, conv.ID))
	require.NoError(t, store.DeleteConversation(ctx, "never-existed"))

	_, err = store.GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteConversation_CascadesMessages(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "kim@ywstorage.co.kr", "agent1", "")
	require.NoError(t, err)

	_, err = store.AppendMessage(ctx, conv.ID, RoleUser, "질문입니다", nil)
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, conv.ID, RoleAssistant, "답변입니다", nil)
	require.NoError(t, err)

	require.NoError(t, store.DeleteConversation(ctx, conv.ID))

	messages, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
