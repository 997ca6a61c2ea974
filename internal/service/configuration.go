package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// ConfigService stores and retrieves per-machine configuration documents.
//
// The document is opaque to this layer beyond two requirements: it must be
// a JSON object (not a scalar or array), and the handful of fields the
// agent always sends must be present — including "MAC", which is how the
// write is correlated to a machine. Field names are the agent's own
// aliases and are stored and returned verbatim; nothing is renamed and
// unknown extra fields are kept.
type ConfigService struct {
	machines *MachineService
	repo     repository.ConfigRepository
	logger   *slog.Logger
}

// NewConfigService creates a ConfigService.
func NewConfigService(machines *MachineService, repo repository.ConfigRepository, logger *slog.Logger) *ConfigService {
	return &ConfigService{machines: machines, repo: repo, logger: logger}
}

// configFields are the known aliased fields of the agent's configuration
// document. Pointers distinguish "absent" from zero values during
// required-field validation; the struct is used only for validation and
// MAC extraction, never for storage — the raw document is what persists.
type configFields struct {
	Name        *string        `json:"Nome"`
	MAC         *string        `json:"MAC"`
	Type        *string        `json:"type"`
	Notify      *bool          `json:"Notificar"`
	Frequency   *int           `json:"Frequency"`
	StartWithOS *bool          `json:"iniciarSO"`
	Status      map[string]any `json:"status"`
}

// parseConfigDocument validates the document shape and extracts the known
// fields. The open-ended status map plus any extra keys pass through
// untouched in the raw payload.
func parseConfigDocument(payload json.RawMessage) (*configFields, error) {
	var probe any
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, apperror.ValidationFailed("data", "configuration must be valid JSON")
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, apperror.ValidationFailed("data", "configuration must be a structured document")
	}

	var fields configFields
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, apperror.ValidationFailed("data", "configuration has malformed fields")
	}

	switch {
	case fields.MAC == nil || *fields.MAC == "":
		return nil, apperror.ValidationFailed("MAC", "field MAC is required")
	case fields.Name == nil:
		return nil, apperror.ValidationFailed("Nome", "field Nome is required")
	case fields.Type == nil:
		return nil, apperror.ValidationFailed("type", "field type is required")
	case fields.Notify == nil:
		return nil, apperror.ValidationFailed("Notificar", "field Notificar is required")
	case fields.Frequency == nil:
		return nil, apperror.ValidationFailed("Frequency", "field Frequency is required")
	case fields.StartWithOS == nil:
		return nil, apperror.ValidationFailed("iniciarSO", "field iniciarSO is required")
	case fields.Status == nil:
		return nil, apperror.ValidationFailed("status", "field status is required")
	}

	return &fields, nil
}

// Put replaces the configuration document for the machine named by the
// document's MAC field. Replace, not merge: the stored document afterwards
// is exactly the submitted one.
//
// The ownership gate runs before any write — a document naming a machine
// the caller does not own fails as not-found, indistinguishable from an
// unknown MAC.
func (s *ConfigService) Put(ctx context.Context, userID string, payload json.RawMessage) (*model.StoredConfig, error) {
	fields, err := parseConfigDocument(payload)
	if err != nil {
		return nil, err
	}

	machine, err := s.machines.EnsureOwnership(ctx, userID, *fields.MAC)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.UpsertConfig(ctx, machine.ID, payload)
	if err != nil {
		return nil, err
	}

	s.logger.Info("updated configuration", slog.String("mac", machine.MACAddress))
	return stored, nil
}

// Get returns the stored configuration for an owned machine.
// Missing configuration is not-found; so is any machine the caller does
// not own.
func (s *ConfigService) Get(ctx context.Context, userID, macAddress string) (*model.StoredConfig, error) {
	machine, err := s.machines.EnsureOwnership(ctx, userID, macAddress)
	if err != nil {
		return nil, err
	}
	return s.repo.GetConfig(ctx, machine.ID)
}
