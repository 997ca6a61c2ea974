package sqlite

import (
	"context"
	"testing"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/model"
)

// newTestDB opens a fresh in-memory database per test: fast, isolated,
// destroyed on close. t.Cleanup handles the close even in subtests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$2a$04$notarealhashbutlongenough",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestMachine(t *testing.T, db *DB, ownerID, mac string) *model.Machine {
	t.Helper()
	machine := &model.Machine{
		MACAddress: mac,
		Name:       "Desktop-01",
		Type:       model.MachineTypePC,
		OwnerID:    ownerID,
	}
	if err := db.CreateMachine(context.Background(), machine); err != nil {
		t.Fatalf("failed to create test machine: %v", err)
	}
	return machine
}
