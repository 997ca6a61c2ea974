package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// MachineService is the machine registry: it owns the resolve-or-create
// upsert shared by login-time auto-registration and explicit registration,
// and the ownership gate every configuration/metrics operation passes
// through before touching a machine's data.
type MachineService struct {
	repo   repository.MachineRepository
	logger *slog.Logger
}

// NewMachineService creates a MachineService.
func NewMachineService(repo repository.MachineRepository, logger *slog.Logger) *MachineService {
	return &MachineService{repo: repo, logger: logger}
}

// ResolveOrCreate looks up the machine by MAC and either returns it,
// creates it, or rejects the caller:
//
//   - absent        → create it, owned by ownerID
//   - foreign owner → apperror.ErrOwnership; nothing is mutated and none of
//     the existing machine's data is leaked in the error
//   - same owner    → update name/type only if they differ from the stored
//     values (an unconditional write would spuriously bump updated_at on
//     every agent login)
//
// The routine is idempotent: a second call with identical inputs finds the
// machine, sees nothing changed, and performs no write.
//
// Two concurrent first logins for a new MAC both miss the lookup and race
// their INSERTs; the UNIQUE constraint fails the loser, which re-resolves
// against the winner's row instead of crashing or duplicating.
func (s *MachineService) ResolveOrCreate(ctx context.Context, ownerID, macAddress, name, machineType string) (*model.Machine, error) {
	macAddress = strings.TrimSpace(macAddress)
	if macAddress == "" {
		return nil, apperror.ValidationFailed("mac_address", "MAC address is required")
	}
	if name == "" {
		name = macAddress
	}
	if machineType == "" {
		machineType = model.MachineTypePC
	}

	machine, err := s.repo.GetMachineByMAC(ctx, macAddress)
	switch {
	case err == nil:
		return s.resolveExisting(ctx, machine, ownerID, name, machineType)
	case errors.Is(err, apperror.ErrNotFound):
		// fall through to create
	default:
		return nil, err
	}

	machine = &model.Machine{
		MACAddress: macAddress,
		Name:       name,
		Type:       machineType,
		OwnerID:    ownerID,
	}
	if err := s.repo.CreateMachine(ctx, machine); err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			// Lost a concurrent first-registration race. Resolve against
			// the row that won; if it belongs to someone else this becomes
			// an ownership conflict, exactly as if it had existed all along.
			winner, lookupErr := s.repo.GetMachineByMAC(ctx, macAddress)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return s.resolveExisting(ctx, winner, ownerID, name, machineType)
		}
		return nil, err
	}

	s.logger.Info("machine registered",
		slog.String("mac", machine.MACAddress),
		slog.String("type", machine.Type),
	)
	return machine, nil
}

// resolveExisting applies the ownership and diff-only-update rules to a
// machine that is already registered.
func (s *MachineService) resolveExisting(ctx context.Context, machine *model.Machine, ownerID, name, machineType string) (*model.Machine, error) {
	if machine.OwnerID != ownerID {
		return nil, apperror.OwnershipConflict(machine.MACAddress)
	}

	if machine.Name == name && machine.Type == machineType {
		return machine, nil
	}

	if err := s.repo.UpdateMachineNameType(ctx, machine.ID, name, machineType); err != nil {
		return nil, err
	}

	// Re-read so the caller sees the canonical updated_at.
	updated, err := s.repo.GetMachineByMACAndOwner(ctx, machine.MACAddress, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("machine updated",
		slog.String("mac", updated.MACAddress),
		slog.String("name", updated.Name),
		slog.String("type", updated.Type),
	)
	return updated, nil
}

// EnsureOwnership is the single authorization gate for configuration and
// metrics access: a compound (mac, owner) lookup where a machine owned by
// someone else is indistinguishable from one that does not exist. Both
// come back as apperror.ErrNotFound — non-owners learn nothing.
func (s *MachineService) EnsureOwnership(ctx context.Context, ownerID, macAddress string) (*model.Machine, error) {
	return s.repo.GetMachineByMACAndOwner(ctx, macAddress, ownerID)
}

// List returns the caller's machines.
func (s *MachineService) List(ctx context.Context, ownerID string) ([]model.Machine, error) {
	return s.repo.ListMachinesByOwner(ctx, ownerID)
}
