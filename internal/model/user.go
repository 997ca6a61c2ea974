// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account that owns zero or more machines.
//
// Email is the login identifier and is unique (exact, case-sensitive match —
// the desktop agent sends it back verbatim on every login).
//
// PasswordHash holds the bcrypt output and never leaves the server: the
// json:"-" tag keeps it out of every JSON response.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	FullName     string    `json:"full_name"  db:"full_name"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
