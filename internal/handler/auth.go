// Package handler is the HTTP layer: it parses requests, calls services
// and writes responses. No business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/service"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// HandleRegister creates a user account.
//
// HTTP: POST /api/register
// Body: {"email": "...", "password": "...", "full_name": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	})
}

// loginRequest mirrors what the desktop agent sends. "c" is the agent's
// free-text operating system descriptor; the server derives the machine
// type from it.
type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	MACAddress string `json:"mac_address"`
	Username   string `json:"username"`
	OS         string `json:"c"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// HandleLogin authenticates a user together with the machine the agent
// runs on, and returns a bearer token bound to that machine.
//
// HTTP: POST /api/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, req.MACAddress, req.Username, req.OS)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token: result.Token,
		Type:  result.MachineType,
	})
}
