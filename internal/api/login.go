// ABOUTME: HTTP handler for staff login
// ABOUTME: Verifies bcrypt credentials and issues an HS256 session token

package api

import (
	"errors"
	"net/http"

	"github.com/ywstorage/deskhub/internal/auth"
	"github.com/ywstorage/deskhub/internal/store"
)

// LoginRequest is the JSON request body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the JSON response for a successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the JSON shape of a staff account
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// handleLogin handles POST /api/auth/login requests. Unknown accounts and
// wrong passwords produce the same 401 so the response doesn't reveal which
// emails exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.logger.Error("looking up user", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.sendJSONError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.verifier.Generate(user.Email, s.tokenTTL)
	if err != nil {
		s.logger.Error("generating token", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("user logged in", "email", user.Email)
	s.writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User: UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	})
}
