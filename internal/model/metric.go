package model

import (
	"encoding/json"
	"time"
)

// MetricRecord is one monitoring submission from an agent. Records are
// append-only: they are never updated, and only removed when the owning
// user (and thus the machine) is deleted.
//
// ReferenceID is a globally unique token assigned at insert time and
// returned to the agent as a write acknowledgment. Duplicate submissions
// are NOT deduplicated — every PUT creates a new record with a new
// reference id.
//
// Payload is the raw JSON document as submitted. Values may be scalars or
// nested objects ({"cpu": 52.3, "disk": {"usage": 73.9}}); the aggregation
// engine decodes it on demand.
type MetricRecord struct {
	ID          string          `json:"-"            db:"id"`
	MachineID   string          `json:"-"            db:"machine_id"`
	Timestamp   time.Time       `json:"timestamp"    db:"timestamp"`
	Payload     json.RawMessage `json:"metrics"      db:"payload"`
	ReferenceID string          `json:"reference_id" db:"reference_id"`
	CreatedAt   time.Time       `json:"-"            db:"created_at"`
}

// Aggregate is the per-key summary over a machine's stored metrics.
// Nil pointers mean "no record contributed a value for this key" — a
// legitimate sparse-data outcome, distinct from zero.
type Aggregate struct {
	Metric  string   `json:"metric"`
	Minimum *float64 `json:"minimum"`
	Maximum *float64 `json:"maximum"`
	Average *float64 `json:"average"`
}
