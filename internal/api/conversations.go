// ABOUTME: HTTP handlers for conversation CRUD
// ABOUTME: List, create, rename, and delete with message counts

package api

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/ywstorage/deskhub/internal/store"
)

// ConversationResponse is the JSON shape of a conversation
type ConversationResponse struct {
	ID           string `json:"id"`
	UserEmail    string `json:"user_email"`
	AgentID      string `json:"agent_id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	MessageCount int    `json:"message_count"`
}

// CreateConversationRequest is the JSON request body for POST /api/conversations
type CreateConversationRequest struct {
	UserEmail string `json:"userEmail" validate:"required,email"`
	AgentID   string `json:"agentId" validate:"required"`
	Title     string `json:"title"`
}

// RenameConversationRequest is the JSON request body for PATCH /api/conversations/{id}
type RenameConversationRequest struct {
	Title string `json:"title" validate:"required"`
}

func conversationResponse(c *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:           c.ID,
		UserEmail:    c.UserEmail,
		AgentID:      c.AgentID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
		MessageCount: c.MessageCount,
	}
}

// handleListConversations handles GET /api/conversations requests.
// Requires ?userEmail=; ?agentId= narrows to one agent.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userEmail := r.URL.Query().Get("userEmail")
	agentID := r.URL.Query().Get("agentId")

	conversations, err := s.store.ListConversations(r.Context(), userEmail, agentID)
	if err != nil {
		s.storeError(w, err, "listing conversations")
		return
	}

	response := lo.Map(conversations, func(c *store.Conversation, _ int) ConversationResponse {
		return conversationResponse(c)
	})
	s.writeJSON(w, http.StatusOK, response)
}

// handleCreateConversation handles POST /api/conversations requests
func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "userEmail and agentId are required")
		return
	}

	conv, err := s.store.CreateConversation(r.Context(), req.UserEmail, req.AgentID, req.Title)
	if err != nil {
		s.storeError(w, err, "creating conversation")
		return
	}

	s.writeJSON(w, http.StatusOK, conversationResponse(conv))
}

// handleRenameConversation handles PATCH /api/conversations/{id} requests
func (s *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req RenameConversationRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "a non-empty title is required")
		return
	}

	conv, err := s.store.RenameConversation(r.Context(), id, req.Title)
	if err != nil {
		s.storeError(w, err, "renaming conversation")
		return
	}

	s.writeJSON(w, http.StatusOK, conversationResponse(conv))
}

// handleDeleteConversation handles DELETE /api/conversations/{id} requests.
// Deletion cascades to the conversation's messages and is idempotent.
func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.DeleteConversation(r.Context(), id); err != nil {
		s.storeError(w, err, "deleting conversation")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
