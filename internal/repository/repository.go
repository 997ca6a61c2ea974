// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
)

// MetricQueryOptions bounds a metric range query.
// Start/End are inclusive; nil means unbounded on that side.
// Limit is the caller's requested cap — implementations clamp it to the
// service-level ceiling before it gets here.
type MetricQueryOptions struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// UserRepository persists user accounts.
type UserRepository interface {
	// CreateUser inserts a new user, filling in ID and timestamps.
	// A duplicate email yields apperror.ErrAlreadyExists, including when
	// the duplicate arrives via a concurrent insert race.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// MachineRepository persists machines and their ownership binding.
type MachineRepository interface {
	// CreateMachine inserts a new machine owned by machine.OwnerID. A duplicate
	// MAC yields apperror.ErrAlreadyExists (the loser of a concurrent
	// first-login race must fail cleanly, not insert a twin).
	CreateMachine(ctx context.Context, machine *model.Machine) error

	// GetMachineByMAC looks a machine up by MAC alone, regardless of owner.
	// Only the registration path may use this — everything else goes
	// through GetMachineByMACAndOwner so non-owners can't probe for existence.
	GetMachineByMAC(ctx context.Context, mac string) (*model.Machine, error)

	// GetMachineByMACAndOwner is the ownership gate: compound (mac, owner) match,
	// with "owned by someone else" indistinguishable from "does not exist".
	GetMachineByMACAndOwner(ctx context.Context, mac, ownerID string) (*model.Machine, error)

	// UpdateMachineNameType updates the mutable fields and bumps updated_at.
	// Callers only invoke it when name or type actually changed.
	UpdateMachineNameType(ctx context.Context, id, name, machineType string) error

	ListMachinesByOwner(ctx context.Context, ownerID string) ([]model.Machine, error)
}

// ConfigRepository persists the 1:1 machine configuration document.
type ConfigRepository interface {
	// UpsertConfig replaces the stored document wholesale (no merge)
	// and bumps updated_at; first write creates the row.
	UpsertConfig(ctx context.Context, machineID string, payload json.RawMessage) (*model.StoredConfig, error)
	GetConfig(ctx context.Context, machineID string) (*model.StoredConfig, error)
}

// MetricRepository persists append-only metric records.
type MetricRepository interface {
	// AppendMetric always inserts a new row and assigns a fresh reference id.
	AppendMetric(ctx context.Context, record *model.MetricRecord) error

	// QueryMetrics returns records newest-first within the inclusive window.
	QueryMetrics(ctx context.Context, machineID string, opts MetricQueryOptions) ([]model.MetricRecord, error)

	// ListAllMetrics returns every record for the machine, for aggregation.
	// Unbounded by design; see service.AggregateService for the cost note.
	ListAllMetrics(ctx context.Context, machineID string) ([]model.MetricRecord, error)
}
