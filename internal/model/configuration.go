package model

import (
	"encoding/json"
	"time"
)

// StoredConfig is the single configuration document for a machine
// (at most one per machine, enforced by a UNIQUE constraint on MachineID).
//
// Payload is the caller's JSON, byte for byte. The agent sends aliased
// field names ("Nome", "Notificar", "iniciarSO", ...) plus whatever extra
// keys a given agent version adds, and expects to read the exact same
// document back. Storing json.RawMessage instead of a decoded struct is
// what makes that round-trip lossless — we never re-encode the document.
//
// Writes replace the whole document; there is no deep merge.
type StoredConfig struct {
	ID        string          `json:"-"          db:"id"`
	MachineID string          `json:"-"          db:"machine_id"`
	Payload   json.RawMessage `json:"data"       db:"payload"`
	CreatedAt time.Time       `json:"-"          db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
