// ABOUTME: Tests for the session service and stateful session controller
// ABOUTME: Covers lazy conversation creation, history loading, and agent switching

package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywstorage/deskhub/internal/agent"
	"github.com/ywstorage/deskhub/internal/config"
	"github.com/ywstorage/deskhub/internal/store"
)

// mockProxy implements Querier for testing
type mockProxy struct {
	answer  *agent.Answer
	queries []string
}

func (m *mockProxy) Query(ctx context.Context, a *agent.Agent, userInput string) *agent.Answer {
	m.queries = append(m.queries, userInput)
	if m.answer != nil {
		return m.answer
	}
	return &agent.Answer{Content: "테스트 답변", Sources: []store.Source{}}
}

func createTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRegistry() *agent.Registry {
	return agent.NewRegistry([]config.AgentConfig{
		{ID: "agent1", Name: "업무매뉴얼", WebhookURL: "https://hooks.example.com/manual"},
		{ID: "agent2", Name: "상담지원", WebhookURL: "https://hooks.example.com/support"},
	})
}

func TestService_Send_FirstMessageCreatesConversation(t *testing.T) {
	testStore := createTestStore(t)
	proxy := &mockProxy{}
	svc := New(testStore, proxy, testRegistry(), nil)
	ctx := context.Background()

	result, err := svc.Send(ctx, &SendRequest{
		UserEmail: "kim@ywstorage.co.kr",
		AgentID:   "agent1",
		Content:   "입고 검수 절차를 알려주세요",
	})
	require.NoError(t, err)

	// Exactly one conversation exists, under the right agent
	conversations, err := testStore.ListConversations(ctx, "kim@ywstorage.co.kr", "")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "agent1", conversations[0].AgentID)
	assert.Equal(t, result.Conversation.ID, conversations[0].ID)

	// Title comes from the first message
	assert.Equal(t, "입고 검수 절차를 알려주세요", conversations[0].Title)

	// One user message and one assistant message, in order
	messages, err := testStore.ListMessages(ctx, result.Conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.RoleUser, messages[0].Role)
	assert.Equal(t, "입고 검수 절차를 알려주세요", messages[0].Content)
	assert.Equal(t, store.RoleAssistant, messages[1].Role)
	assert.Equal(t, "테스트 답변", messages[1].Content)

	// Append bumped the conversation past its creation time
	updated, err := testStore.GetConversation(ctx, result.Conversation.ID)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestService_Send_ReusesBoundConversation(t *testing.T) {
	testStore := createTestStore(t)
	proxy := &mockProxy{}
	svc := New(testStore, proxy, testRegistry(), nil)
	ctx := context.Background()

	first, err := svc.Send(ctx, &SendRequest{
		UserEmail: "kim@ywstorage.co.kr",
		AgentID:   "agent1",
		Content:   "첫 질문",
	})
	require.NoError(t, err)

	second, err := svc.Send(ctx, &SendRequest{
		UserEmail:      "kim@ywstorage.co.kr",
		AgentID:        "agent1",
		ConversationID: first.Conversation.ID,
		Content:        "두번째 질문",
	})
	require.NoError(t, err)
	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)

	conversations, err := testStore.ListConversations(ctx, "kim@ywstorage.co.kr", "agent1")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, 4, conversations[0].MessageCount)
}

func TestService_Send_Validation(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockProxy{}, testRegistry(), nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, &SendRequest{
		UserEmail: "kim@ywstorage.co.kr",
		AgentID:   "agent1",
		Content:   "   ",
	})
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = svc.Send(ctx, &SendRequest{
		UserEmail: "kim@ywstorage.co.kr",
		AgentID:   "agent9",
		Content:   "hello",
	})
	assert.ErrorIs(t, err, agent.ErrAgentNotFound)
}

func TestService_Send_RejectsCrossAgentConversation(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockProxy{}, testRegistry(), nil)
	ctx := context.Background()

	result, err := svc.Send(ctx, &SendRequest{
		UserEmail: "kim@ywstorage.co.kr",
		AgentID:   "agent1",
		Content:   "질문",
	})
	require.NoError(t, err)

	_, err = svc.Send(ctx, &SendRequest{
		UserEmail:      "kim@ywstorage.co.kr",
		AgentID:        "agent2",
		ConversationID: result.Conversation.ID,
		Content:        "다른 에이전트로",
	})
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestService_Send_RecordsQuestionBeforeAnswerFails(t *testing.T) {
	testStore := createTestStore(t)
	proxy := &mockProxy{answer: &agent.Answer{Content: agent.ApologyMessage, Sources: []store.Source{}}}
	svc := New(testStore, proxy, testRegistry(), nil)
	ctx := context.Background()

	result, err := svc.Send(ctx, &SendRequest{
		UserEmail: "kim@ywstorage.co.kr",
		AgentID:   "agent1",
		Content:   "질문",
	})
	require.NoError(t, err, "upstream failure must not surface as an error")

	messages, err := testStore.ListMessages(ctx, result.Conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, agent.ApologyMessage, messages[1].Content)
}

func TestSession_LazyCreateAndStates(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockProxy{}, testRegistry(), nil)
	ctx := context.Background()

	sess := NewSession(svc, "kim@ywstorage.co.kr", "agent1")
	assert.Equal(t, StateIdle, sess.State())
	assert.Empty(t, sess.ConversationID())

	_, err := sess.Send(ctx, "질문입니다")
	require.NoError(t, err)
	assert.Equal(t, StateActive, sess.State())
	assert.NotEmpty(t, sess.ConversationID())
	assert.Len(t, sess.Messages(), 2)

	// Further sends reuse the bound conversation
	bound := sess.ConversationID()
	_, err = sess.Send(ctx, "추가 질문")
	require.NoError(t, err)
	assert.Equal(t, bound, sess.ConversationID())
	assert.Len(t, sess.Messages(), 4)
}

func TestSession_SwitchAgentStartsFreshConversation(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockProxy{}, testRegistry(), nil)
	ctx := context.Background()

	sess := NewSession(svc, "kim@ywstorage.co.kr", "agent1")
	_, err := sess.Send(ctx, "agent1에게 질문")
	require.NoError(t, err)
	firstConv := sess.ConversationID()

	sess.SwitchAgent("agent2")
	assert.Equal(t, StateIdle, sess.State())
	assert.Empty(t, sess.ConversationID())
	assert.Empty(t, sess.Messages())

	_, err = sess.Send(ctx, "agent2에게 질문")
	require.NoError(t, err)
	assert.NotEqual(t, firstConv, sess.ConversationID())

	// Prior conversation and its messages are untouched
	messages, err := testStore.ListMessages(ctx, firstConv)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	conversations, err := testStore.ListConversations(ctx, "kim@ywstorage.co.kr", "")
	require.NoError(t, err)
	assert.Len(t, conversations, 2)
}

func TestSession_SelectLoadsHistory(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockProxy{}, testRegistry(), nil)
	ctx := context.Background()

	// Build up a historical conversation
	old := NewSession(svc, "kim@ywstorage.co.kr", "agent1")
	_, err := old.Send(ctx, "지난 질문")
	require.NoError(t, err)
	oldConv := old.ConversationID()

	// Fresh session selects it
	sess := NewSession(svc, "kim@ywstorage.co.kr", "agent1")
	require.NoError(t, sess.Select(ctx, oldConv))

	assert.Equal(t, StateActive, sess.State())
	assert.Equal(t, oldConv, sess.ConversationID())
	require.Len(t, sess.Messages(), 2)
	assert.Equal(t, "지난 질문", sess.Messages()[0].Content)
}

func TestSession_Reset(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockProxy{}, testRegistry(), nil)
	ctx := context.Background()

	sess := NewSession(svc, "kim@ywstorage.co.kr", "agent1")
	_, err := sess.Send(ctx, "질문")
	require.NoError(t, err)

	sess.Reset()
	assert.Equal(t, StateIdle, sess.State())
	assert.Equal(t, "agent1", sess.AgentID(), "reset keeps the agent")
	assert.Empty(t, sess.ConversationID())
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "짧은 질문", deriveTitle("  짧은 질문  "))

	long := "이 질문은 제목으로 쓰기에는 너무 길어서 잘려야 하는 아주 긴 문장입니다"
	title := deriveTitle(long)
	assert.LessOrEqual(t, len([]rune(title)), titleRuneLimit+1)
	assert.Contains(t, title, "…")
}
