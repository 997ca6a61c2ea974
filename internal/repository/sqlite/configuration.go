package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// compile-time check that *DB implements repository.ConfigRepository
var _ repository.ConfigRepository = (*DB)(nil)

// UpsertConfig stores the configuration document for a machine,
// replacing any previous document wholesale.
//
// The UPDATE-then-INSERT sequence keeps the row's id and created_at stable
// across rewrites (INSERT OR REPLACE would churn both). If two first
// writes race, the machine_id UNIQUE constraint fails the second INSERT
// and we fall back to the UPDATE path, which by then matches.
func (db *DB) UpsertConfig(ctx context.Context, machineID string, payload json.RawMessage) (*model.StoredConfig, error) {
	now := time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE machine_configurations SET payload = ?, updated_at = ? WHERE machine_id = ?`,
		string(payload), now, machineID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating configuration for machine %s: %w", machineID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	if affected == 0 {
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO machine_configurations (id, machine_id, payload, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			xid.New().String(), machineID, string(payload), now, now,
		)
		if err != nil {
			if !isUniqueViolation(err) {
				return nil, fmt.Errorf("sqlite: inserting configuration for machine %s: %w", machineID, err)
			}
			// Lost a concurrent first-write race: a row exists now, so the
			// replace-on-write semantics are served by updating it.
			if _, err := db.conn.ExecContext(ctx,
				`UPDATE machine_configurations SET payload = ?, updated_at = ? WHERE machine_id = ?`,
				string(payload), now, machineID,
			); err != nil {
				return nil, fmt.Errorf("sqlite: updating configuration for machine %s: %w", machineID, err)
			}
		}
	}

	return db.GetConfig(ctx, machineID)
}

// GetConfig retrieves the stored configuration document for a machine.
func (db *DB) GetConfig(ctx context.Context, machineID string) (*model.StoredConfig, error) {
	var (
		c       model.StoredConfig
		payload string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, machine_id, payload, created_at, updated_at
		 FROM machine_configurations WHERE machine_id = ?`,
		machineID,
	).Scan(&c.ID, &c.MachineID, &payload, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("configuration", machineID)
		}
		return nil, fmt.Errorf("sqlite: getting configuration for machine %s: %w", machineID, err)
	}

	c.Payload = json.RawMessage(payload)
	return &c, nil
}
