// ABOUTME: Orchestration layer for sending a query through a conversation
// ABOUTME: Lazily creates conversations and records both sides of each exchange

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ywstorage/deskhub/internal/agent"
	"github.com/ywstorage/deskhub/internal/store"
)

// titleRuneLimit bounds titles derived from the first message of a conversation.
const titleRuneLimit = 30

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	CreateConversation(ctx context.Context, userEmail, agentID, title string) (*store.Conversation, error)
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]*store.Message, error)
	AppendMessage(ctx context.Context, conversationID, role, content string, sources []store.Source) (*store.Message, error)
}

// Querier defines what the service needs from the agent layer
type Querier interface {
	Query(ctx context.Context, a *agent.Agent, userInput string) *agent.Answer
}

// Service routes a user query through persistence and the agent proxy.
// The user message is recorded before the webhook is called, so history
// keeps the question even when the agent fails to answer.
type Service struct {
	store    ConversationStore
	proxy    Querier
	registry *agent.Registry
	logger   *slog.Logger
}

// New creates a session service
func New(store ConversationStore, proxy Querier, registry *agent.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		proxy:    proxy,
		registry: registry,
		logger:   logger.With("component", "session"),
	}
}

// SendRequest contains everything needed to send one query
type SendRequest struct {
	UserEmail string
	AgentID   string

	// ConversationID is empty on the first send of a fresh session; the
	// service then creates the conversation lazily.
	ConversationID string

	Content string
}

// SendResult is the outcome of one exchange
type SendResult struct {
	Conversation     *store.Conversation
	UserMessage      *store.Message
	AssistantMessage *store.Message
}

// Send records the user message, queries the agent webhook, and records the
// answer. A missing conversation id triggers lazy creation under the
// requested agent, titled after the first message.
func (s *Service) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", store.ErrValidation)
	}

	target, err := s.registry.Get(req.AgentID)
	if err != nil {
		return nil, err
	}

	conv, err := s.ensureConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	// Record the question first, then ask
	userMsg, err := s.store.AppendMessage(ctx, conv.ID, store.RoleUser, req.Content, nil)
	if err != nil {
		return nil, fmt.Errorf("recording user message: %w", err)
	}

	// Query never fails past this point: upstream errors arrive as an
	// apology answer
	answer := s.proxy.Query(ctx, target, req.Content)

	assistantMsg, err := s.store.AppendMessage(ctx, conv.ID, store.RoleAssistant, answer.Content, answer.Sources)
	if err != nil {
		return nil, fmt.Errorf("recording assistant message: %w", err)
	}

	s.logger.Debug("exchange completed",
		"conversation", conv.ID,
		"agent", req.AgentID,
		"user", req.UserEmail)

	return &SendResult{
		Conversation:     conv,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// History returns the full message log of a conversation
func (s *Service) History(ctx context.Context, conversationID string) ([]*store.Message, error) {
	return s.store.ListMessages(ctx, conversationID)
}

// ensureConversation resolves an existing conversation or creates a new one.
// An existing conversation must belong to the requested agent: a conversation
// never spans two agents.
func (s *Service) ensureConversation(ctx context.Context, req *SendRequest) (*store.Conversation, error) {
	if req.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv.AgentID != req.AgentID {
			return nil, fmt.Errorf("%w: conversation belongs to agent %q", store.ErrValidation, conv.AgentID)
		}
		return conv, nil
	}

	conv, err := s.store.CreateConversation(ctx, req.UserEmail, req.AgentID, deriveTitle(req.Content))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("created conversation lazily",
		"conversation", conv.ID,
		"agent", req.AgentID,
		"user", req.UserEmail)
	return conv, nil
}

// deriveTitle builds a conversation title from the first message
func deriveTitle(content string) string {
	title := strings.TrimSpace(content)
	runes := []rune(title)
	if len(runes) > titleRuneLimit {
		title = string(runes[:titleRuneLimit]) + "…"
	}
	return title
}
