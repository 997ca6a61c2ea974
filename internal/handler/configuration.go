package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/auth"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/service"
)

// ConfigHandler serves the machine configuration endpoints.
//
// The document travels through this layer as json.RawMessage in both
// directions: decoding it into Go maps and re-encoding would reorder keys
// and lose nothing but prove nothing — the stored bytes ARE the caller's
// bytes, which is what makes the round-trip guarantee trivial to uphold.
type ConfigHandler struct {
	configs *service.ConfigService
	logger  *slog.Logger
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(configs *service.ConfigService, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{configs: configs, logger: logger}
}

type configUpdateRequest struct {
	Data json.RawMessage `json:"data"`
}

type configUpdateResponse struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type configReadResponse struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HandleUpdate replaces the machine's configuration document. The target
// machine is named by the document's own "MAC" field.
//
// HTTP: POST /api/update_confg_maquina
// (The path typo is the agent's — it is part of the wire contract.)
func (h *ConfigHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid configuration JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}
	if len(req.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "field data is required"})
		return
	}

	stored, err := h.configs.Put(r.Context(), claims.UserID, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, configUpdateResponse{
		Status:    "success",
		Data:      stored.Payload,
		UpdatedAt: stored.UpdatedAt,
	})
}

// HandleGet returns the stored configuration for an owned machine.
//
// HTTP: GET /api/machine/{mac}
func (h *ConfigHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	mac := r.PathValue("mac")
	stored, err := h.configs.Get(r.Context(), claims.UserID, mac)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, configReadResponse{
		Data:      stored.Payload,
		UpdatedAt: stored.UpdatedAt,
	})
}
