package store

import (
	"database/sql"
	"fmt"

	"github.com/pmoura/listinha/internal/model"
)

// DefaultGroups are seeded for every new user. None of them is protected:
// any group can be deleted as long as it is not the last one.
var DefaultGroups = []string{"Mercado", "Presentes", "Outros"}

type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func scanGroup(scanner interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	err := scanner.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const groupCols = `id, user_id, name, created_at`

func (s *GroupStore) ListByUser(userID int64) ([]model.Group, error) {
	rows, err := s.db.Query(
		`SELECT `+groupCols+` FROM groups WHERE user_id = ? ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func (s *GroupStore) GetByName(userID int64, name string) (*model.Group, error) {
	row := s.db.QueryRow(
		`SELECT `+groupCols+` FROM groups WHERE user_id = ? AND name = ?`,
		userID, name,
	)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// Create adds a named group for the user. Returns ErrGroupExists when the
// user already has a group with that name.
func (s *GroupStore) Create(userID int64, name string) (*model.Group, error) {
	existing, err := s.GetByName(userID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrGroupExists
	}

	result, err := s.db.Exec(
		`INSERT INTO groups (user_id, name) VALUES (?, ?)`,
		userID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+groupCols+` FROM groups WHERE id = ?`, id)
	return scanGroup(row)
}

// Delete removes the named group. Returns ErrLastGroup when it is the
// user's only remaining group, and nil with no effect when the group does
// not exist. Items keep their category string; deleting a group does not
// cascade to its items.
func (s *GroupStore) Delete(userID int64, name string) error {
	existing, err := s.GetByName(userID, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	count, err := s.CountByUser(userID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastGroup
	}

	if _, err := s.db.Exec(`DELETE FROM groups WHERE id = ?`, existing.ID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func (s *GroupStore) CountByUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM groups WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return count, nil
}

// SeedDefaults inserts the default groups for a new user in a single
// transaction.
func (s *GroupStore) SeedDefaults(userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, name := range DefaultGroups {
		if _, err := tx.Exec(
			`INSERT INTO groups (user_id, name) VALUES (?, ?)`,
			userID, name,
		); err != nil {
			return fmt.Errorf("seed group %q: %w", name, err)
		}
	}

	return tx.Commit()
}
