// ABOUTME: HTTP handlers for the chat exchange endpoint and agent listing
// ABOUTME: A send call drives the whole ask-persist-answer flow server-side

package api

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/ywstorage/deskhub/internal/agent"
	"github.com/ywstorage/deskhub/internal/session"
)

// AgentInfoResponse is the JSON shape of a configured agent.
// Webhook URLs stay server-side.
type AgentInfoResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChatSendRequest is the JSON request body for POST /api/chat/send.
// ConversationID is omitted on the first message of a fresh session.
type ChatSendRequest struct {
	UserEmail      string `json:"userEmail" validate:"required,email"`
	AgentID        string `json:"agentId" validate:"required"`
	ConversationID string `json:"conversationId"`
	Content        string `json:"content" validate:"required"`
}

// ChatSendResponse is the JSON response for POST /api/chat/send
type ChatSendResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	UserMessage  MessageResponse      `json:"user_message"`
	Assistant    MessageResponse      `json:"assistant_message"`
}

// handleListAgents handles GET /api/agents requests
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	response := lo.Map(s.registry.List(), func(a agent.Agent, _ int) AgentInfoResponse {
		return AgentInfoResponse{
			ID:          a.ID,
			Name:        a.Name,
			Icon:        a.Icon,
			Title:       a.Title,
			Description: a.Description,
		}
	})
	s.writeJSON(w, http.StatusOK, response)
}

// handleChatSend handles POST /api/chat/send requests.
// The session service lazily creates the conversation, records the user
// message, queries the agent webhook, and records the answer. Upstream
// agent failures still produce a 200 with an apology answer.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req ChatSendRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "userEmail, agentId and content are required")
		return
	}

	result, err := s.sessions.Send(r.Context(), &session.SendRequest{
		UserEmail:      req.UserEmail,
		AgentID:        req.AgentID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
	})
	if err != nil {
		s.storeError(w, err, "sending chat message")
		return
	}

	s.writeJSON(w, http.StatusOK, ChatSendResponse{
		Conversation: conversationResponse(result.Conversation),
		UserMessage:  messageResponse(result.UserMessage),
		Assistant:    messageResponse(result.AssistantMessage),
	})
}
