package store

import (
	"errors"
	"testing"
)

func TestUserCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, err := us.Create("ana@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "ana@example.com")
	}
	if u.PublicID == "" {
		t.Error("expected a public id to be assigned")
	}

	byEmail, err := us.GetByEmail("ana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Errorf("get by email = %+v, want id %d", byEmail, u.ID)
	}

	byPublic, err := us.GetByPublicID(u.PublicID)
	if err != nil {
		t.Fatalf("get by public id: %v", err)
	}
	if byPublic == nil || byPublic.ID != u.ID {
		t.Errorf("get by public id = %+v, want id %d", byPublic, u.ID)
	}
}

func TestUserPublicIDsDiffer(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	a, err := us.Create("a@example.com", "hash")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := us.Create("b@example.com", "hash")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.PublicID == b.PublicID {
		t.Error("expected distinct public ids")
	}
}

func TestUserEmailTaken(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	if _, err := us.Create("dup@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := us.Create("dup@example.com", "other")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, err := us.GetByPublicID("no-such-id")
	if err != nil {
		t.Fatalf("get by public id: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
}
