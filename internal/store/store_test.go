package store

import (
	"database/sql"
	"testing"

	"github.com/pmoura/listinha/internal/database"
)

// setupTestDB opens a fresh in-memory database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user and seeds the default groups.
func createTestUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	us := NewUserStore(db)
	u, err := us.Create(email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	if err := NewGroupStore(db).SeedDefaults(u.ID); err != nil {
		t.Fatalf("seed groups for %s: %v", email, err)
	}
	return u.ID
}
