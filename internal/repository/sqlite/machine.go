package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// compile-time check that *DB implements repository.MachineRepository
var _ repository.MachineRepository = (*DB)(nil)

const machineColumns = `id, mac_address, name, type, owner_id, created_at, updated_at`

// CreateMachine inserts a new machine bound to machine.OwnerID.
//
// The single INSERT is the atomic create-then-link step: the owner_id
// foreign key means a machine row can never exist without a valid owner.
// The MAC UNIQUE constraint settles concurrent first-login races — the
// loser surfaces as already-exists and the registry retries the lookup.
func (db *DB) CreateMachine(ctx context.Context, machine *model.Machine) error {
	now := time.Now().UTC()
	machine.ID = xid.New().String()
	machine.CreatedAt = now
	machine.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO machines (id, mac_address, name, type, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		machine.ID,
		machine.MACAddress,
		machine.Name,
		machine.Type,
		machine.OwnerID,
		machine.CreatedAt,
		machine.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("machine", machine.MACAddress)
		}
		return fmt.Errorf("sqlite: inserting machine: %w", err)
	}

	return nil
}

// GetMachineByMAC looks up a machine by MAC address alone (exact match, no
// normalization). Registration-path only; see the interface doc.
func (db *DB) GetMachineByMAC(ctx context.Context, mac string) (*model.Machine, error) {
	return db.getMachine(ctx, `mac_address = ?`, mac)
}

// GetMachineByMACAndOwner is the ownership gate lookup. A machine owned by a
// different user scans as sql.ErrNoRows here, so the caller genuinely
// cannot tell "foreign" from "absent".
func (db *DB) GetMachineByMACAndOwner(ctx context.Context, mac, ownerID string) (*model.Machine, error) {
	return db.getMachine(ctx, `mac_address = ? AND owner_id = ?`, mac, ownerID)
}

// UpdateMachineNameType updates the mutable machine fields and bumps updated_at.
func (db *DB) UpdateMachineNameType(ctx context.Context, id, name, machineType string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE machines SET name = ?, type = ?, updated_at = ? WHERE id = ?`,
		name, machineType, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating machine %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("machine", id)
	}

	return nil
}

// ListMachinesByOwner returns every machine owned by the user, oldest first.
func (db *DB) ListMachinesByOwner(ctx context.Context, ownerID string) ([]model.Machine, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+machineColumns+` FROM machines WHERE owner_id = ? ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing machines: %w", err)
	}
	defer rows.Close()

	var machines []model.Machine
	for rows.Next() {
		var m model.Machine
		if err := rows.Scan(
			&m.ID, &m.MACAddress, &m.Name, &m.Type, &m.OwnerID,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning machine row: %w", err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating machines: %w", err)
	}

	return machines, nil
}

func (db *DB) getMachine(ctx context.Context, where string, args ...any) (*model.Machine, error) {
	var m model.Machine

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+machineColumns+` FROM machines WHERE `+where,
		args...,
	).Scan(
		&m.ID, &m.MACAddress, &m.Name, &m.Type, &m.OwnerID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("machine", fmt.Sprint(args[0]))
		}
		return nil, fmt.Errorf("sqlite: getting machine: %w", err)
	}

	return &m, nil
}
