// ABOUTME: Stateful session controller tracking the client-visible conversation
// ABOUTME: Tagged Idle/Active/Loading lifecycle with lazy conversation binding

package session

import (
	"context"
	"fmt"

	"github.com/ywstorage/deskhub/internal/store"
)

// State is the lifecycle of a chat session
type State int

const (
	// StateIdle means no conversation is bound yet; the next send creates one
	StateIdle State = iota
	// StateActive means a conversation id is bound and sends append to it
	StateActive
	// StateLoading means a historical conversation is being fetched
	StateLoading
)

// String returns the state name for logging
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateLoading:
		return "loading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session tracks one user's current conversation with one agent. It holds the
// in-memory message sequence the client renders and binds a conversation id
// only after the first successful send.
//
// Session is not safe for concurrent use; the interaction model allows one
// outstanding request per session.
type Session struct {
	svc       *Service
	userEmail string

	agentID        string
	conversationID string
	messages       []*store.Message
	state          State
}

// NewSession creates an idle session for the given user and agent
func NewSession(svc *Service, userEmail, agentID string) *Session {
	return &Session{
		svc:       svc,
		userEmail: userEmail,
		agentID:   agentID,
		state:     StateIdle,
	}
}

// State returns the current lifecycle state
func (s *Session) State() State { return s.state }

// AgentID returns the agent the session currently targets
func (s *Session) AgentID() string { return s.agentID }

// ConversationID returns the bound conversation id, or empty when idle
func (s *Session) ConversationID() string { return s.conversationID }

// Messages returns the in-memory message sequence
func (s *Session) Messages() []*store.Message { return s.messages }

// Send submits user input. On the first send of an idle session the
// conversation is created lazily and the session transitions to Active.
func (s *Session) Send(ctx context.Context, content string) (*SendResult, error) {
	result, err := s.svc.Send(ctx, &SendRequest{
		UserEmail:      s.userEmail,
		AgentID:        s.agentID,
		ConversationID: s.conversationID,
		Content:        content,
	})
	if err != nil {
		return nil, err
	}

	s.conversationID = result.Conversation.ID
	s.messages = append(s.messages, result.UserMessage, result.AssistantMessage)
	s.state = StateActive

	return result, nil
}

// Select loads a historical conversation, replaces the in-memory message
// sequence with its full history, and binds to it.
func (s *Session) Select(ctx context.Context, conversationID string) error {
	prev := s.state
	s.state = StateLoading

	messages, err := s.svc.History(ctx, conversationID)
	if err != nil {
		s.state = prev
		return err
	}

	s.conversationID = conversationID
	s.messages = messages
	s.state = StateActive
	return nil
}

// SwitchAgent retargets the session at a different agent. The message
// sequence is cleared and the conversation id unbound, so the next send
// creates a fresh conversation under the new agent.
func (s *Session) SwitchAgent(agentID string) {
	s.agentID = agentID
	s.Reset()
}

// Reset clears the session back to Idle without changing the agent
func (s *Session) Reset() {
	s.conversationID = ""
	s.messages = nil
	s.state = StateIdle
}
