// ABOUTME: HTTP server wiring all deskhub API routes
// ABOUTME: JSON request/response handling with structured error mapping

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ywstorage/deskhub/internal/agent"
	"github.com/ywstorage/deskhub/internal/auth"
	"github.com/ywstorage/deskhub/internal/config"
	"github.com/ywstorage/deskhub/internal/session"
	"github.com/ywstorage/deskhub/internal/store"
)

// Server exposes the deskhub HTTP API
type Server struct {
	store    store.Store
	registry *agent.Registry
	sessions *session.Service
	verifier *auth.JWTVerifier
	tokenTTL time.Duration
	validate *validator.Validate
	logger   *slog.Logger
	httpAddr string
}

// New creates a server with all dependencies wired
func New(cfg *config.Config, st store.Store, registry *agent.Registry, sessions *session.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    st,
		registry: registry,
		sessions: sessions,
		verifier: auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		tokenTTL: cfg.Auth.TokenTTL,
		validate: validator.New(),
		logger:   logger.With("component", "api"),
		httpAddr: cfg.Server.HTTPAddr,
	}
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/agents", s.handleListAgents)

	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	mux.HandleFunc("PATCH /api/conversations/{id}", s.handleRenameConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)

	mux.HandleFunc("GET /api/conversations/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/conversations/{id}/messages", s.handleAppendMessage)

	mux.HandleFunc("POST /api/chat/send", s.handleChatSend)

	return s.logRequests(mux)
}

// Run starts the HTTP server and shuts it down when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.httpAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// logRequests wraps the mux with access logging
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

// sendJSONError writes a structured error response
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// storeError maps store errors onto HTTP statuses. Validation failures carry
// their message to the client; anything unexpected is logged and hidden
// behind a generic 500.
func (s *Server) storeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, agent.ErrAgentNotFound):
		s.sendJSONError(w, http.StatusNotFound, "agent not found")
	default:
		s.logger.Error(action, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes and validates a JSON request body
func (s *Server) decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	if err := s.validate.Struct(v); err != nil {
		return err
	}
	return nil
}
