package model

import "time"

// Machine type tags. The tag is a free-form string by contract, but the
// login flow only ever derives these two values from the agent's OS
// descriptor (see service.MachineTypeFromOS).
const (
	MachineTypePC     = "pc"
	MachineTypeServer = "server"
)

// Machine is a monitored host, identified by its MAC address.
//
// MACAddress is treated as an opaque unique key — no normalization is
// applied, so "aa:bb..." and "AA:BB..." are distinct machines. That is
// deliberate: the agent reports the MAC the same way every time, and
// normalizing server-side would silently merge records for agents that
// don't.
//
// OwnerID is set at creation and never reassigned. A login presenting a MAC
// owned by someone else fails; it does not transfer the machine.
type Machine struct {
	ID         string    `json:"id"          db:"id"`
	MACAddress string    `json:"mac_address" db:"mac_address"`
	Name       string    `json:"name"        db:"name"`
	Type       string    `json:"type"        db:"type"`
	OwnerID    string    `json:"-"           db:"owner_id"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}
