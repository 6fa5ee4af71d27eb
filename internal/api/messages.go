// ABOUTME: HTTP handlers for the per-conversation message log
// ABOUTME: Full-history listing and append-only writes

package api

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/ywstorage/deskhub/internal/store"
)

// MessageResponse is the JSON shape of a message
type MessageResponse struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	Sources        []store.Source `json:"sources"`
	CreatedAt      string         `json:"created_at"`
}

// AppendMessageRequest is the JSON request body for POST /api/conversations/{id}/messages
type AppendMessageRequest struct {
	Role    string         `json:"role" validate:"required,oneof=user assistant"`
	Content string         `json:"content" validate:"required"`
	Sources []store.Source `json:"sources"`
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		Sources:        m.Sources,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

// handleListMessages handles GET /api/conversations/{id}/messages requests.
// Returns the full history ordered oldest first.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	messages, err := s.store.ListMessages(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "listing messages")
		return
	}

	response := lo.Map(messages, func(m *store.Message, _ int) MessageResponse {
		return messageResponse(m)
	})
	s.writeJSON(w, http.StatusOK, response)
}

// handleAppendMessage handles POST /api/conversations/{id}/messages requests
func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req AppendMessageRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "role and content are required")
		return
	}

	msg, err := s.store.AppendMessage(r.Context(), id, req.Role, req.Content, req.Sources)
	if err != nil {
		s.storeError(w, err, "appending message")
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse(msg))
}
