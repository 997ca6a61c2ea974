// Package sqlite implements the repository interfaces over SQLite.
//
// modernc.org/sqlite is a pure-Go translation of SQLite — no CGo, no C
// compiler, works everywhere Go works. The blank import below registers it
// with database/sql as the driver named "sqlite".
//
// The schema carries the integrity rules the service contracts rely on:
// unique user email, unique machine MAC, unique configuration machine
// reference, unique metric reference id, and ON DELETE CASCADE from user
// down to machines, configurations and metrics. Concurrent first-write
// races are settled here by the UNIQUE constraints, not by in-process
// locking.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. One struct for all of them keeps the wiring in server.go to a
// single value, same as a single SQLAlchemy session would.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
//
// The pragmas ride in the DSN so the driver applies them to EVERY pooled
// connection — a plain "PRAGMA foreign_keys=ON" Exec would only configure
// whichever connection happened to run it, and the cascade from users down
// to metrics depends on foreign keys being on everywhere. WAL allows
// concurrent reads while a write is in progress; busy_timeout makes
// writers queue instead of failing with SQLITE_BUSY.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection; without this, every
	// pooled connection would see its own empty schema.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run at every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			full_name     TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS machines (
			id          TEXT PRIMARY KEY,
			mac_address TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL DEFAULT 'pc',
			owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_machines_owner_id ON machines(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating machines table: %w", err)
	}

	// machine_id is UNIQUE: at most one configuration per machine is an
	// enforced invariant, not a convention.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS machine_configurations (
			id         TEXT PRIMARY KEY,
			machine_id TEXT NOT NULL UNIQUE REFERENCES machines(id) ON DELETE CASCADE,
			payload    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating machine_configurations table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS monitoring_data (
			id           TEXT PRIMARY KEY,
			machine_id   TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
			timestamp    DATETIME NOT NULL,
			payload      TEXT NOT NULL,
			reference_id TEXT NOT NULL UNIQUE,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_monitoring_data_machine_ts
			ON monitoring_data(machine_id, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("creating monitoring_data table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The driver surfaces these as errors whose message contains the
// constraint name; string matching is the stable way to detect them across
// driver versions. Callers translate the violation into the domain
// taxonomy (already exists / ownership conflict) instead of leaking a raw
// storage error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
