package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/repository"
)

// compile-time check that *DB implements repository.MetricRepository
var _ repository.MetricRepository = (*DB)(nil)

// AppendMetric inserts a new metric record. Always an insert — duplicate
// submissions create duplicate rows, each with its own reference id.
//
// The reference id is a UUIDv4 rendered as 32 hex characters (no dashes),
// the format the agent has stored in its local journal since v1. xid stays
// the row primary key for consistency with every other table.
func (db *DB) AppendMetric(ctx context.Context, record *model.MetricRecord) error {
	record.ID = xid.New().String()
	record.ReferenceID = strings.ReplaceAll(uuid.NewString(), "-", "")
	record.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO monitoring_data (id, machine_id, timestamp, payload, reference_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.MachineID,
		record.Timestamp,
		string(record.Payload),
		record.ReferenceID,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting metric record: %w", err)
	}

	return nil
}

// QueryMetrics returns the machine's records newest-first, optionally bounded by
// the inclusive [start, end] window, capped at opts.Limit rows.
func (db *DB) QueryMetrics(ctx context.Context, machineID string, opts repository.MetricQueryOptions) ([]model.MetricRecord, error) {
	query := `SELECT id, machine_id, timestamp, payload, reference_id, created_at
	          FROM monitoring_data WHERE machine_id = ?`
	args := []any{machineID}

	if opts.Start != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *opts.Start)
	}
	if opts.End != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *opts.End)
	}

	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, opts.Limit)

	return db.scanMetricRows(ctx, query, args...)
}

// ListAllMetrics returns every record for the machine, no window, no cap.
// Ordering is not part of the aggregation contract; newest-first keeps it
// consistent with Query.
func (db *DB) ListAllMetrics(ctx context.Context, machineID string) ([]model.MetricRecord, error) {
	return db.scanMetricRows(ctx,
		`SELECT id, machine_id, timestamp, payload, reference_id, created_at
		 FROM monitoring_data WHERE machine_id = ? ORDER BY timestamp DESC`,
		machineID,
	)
}

func (db *DB) scanMetricRows(ctx context.Context, query string, args ...any) ([]model.MetricRecord, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying metric records: %w", err)
	}
	defer rows.Close()

	records := []model.MetricRecord{}
	for rows.Next() {
		var (
			r       model.MetricRecord
			payload string
		)
		if err := rows.Scan(
			&r.ID, &r.MachineID, &r.Timestamp, &payload, &r.ReferenceID, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning metric row: %w", err)
		}
		r.Payload = json.RawMessage(payload)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating metric rows: %w", err)
	}

	return records, nil
}
