package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/auth"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/service"
)

// MachineHandler serves explicit machine registration and listing.
type MachineHandler struct {
	machines *service.MachineService
	logger   *slog.Logger
}

// NewMachineHandler creates a MachineHandler.
func NewMachineHandler(machines *service.MachineService, logger *slog.Logger) *MachineHandler {
	return &MachineHandler{machines: machines, logger: logger}
}

type machineCreateRequest struct {
	MACAddress string `json:"mac_address"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

type machineResponse struct {
	ID         string `json:"id"`
	MACAddress string `json:"mac_address"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

func toMachineResponse(m *model.Machine) machineResponse {
	return machineResponse{
		ID:         m.ID,
		MACAddress: m.MACAddress,
		Name:       m.Name,
		Type:       m.Type,
	}
}

// HandleCreate registers (or re-registers) a machine for the caller.
// Same upsert as login-time auto-registration: idempotent for the owner,
// a 400 ownership conflict for anyone else.
//
// HTTP: POST /api/machines
func (h *MachineHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req machineCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid machine JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}
	if req.Type == "" {
		req.Type = model.MachineTypePC
	}

	machine, err := h.machines.ResolveOrCreate(r.Context(), claims.UserID, req.MACAddress, req.Name, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMachineResponse(machine))
}

// HandleList returns the caller's machines.
//
// HTTP: GET /api/machines
func (h *MachineHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	machines, err := h.machines.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]machineResponse, 0, len(machines))
	for i := range machines {
		out = append(out, toMachineResponse(&machines[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
