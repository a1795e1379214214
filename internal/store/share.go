package store

import (
	"database/sql"
	"fmt"

	"github.com/pmoura/listinha/internal/model"
)

type ShareStore struct {
	db *sql.DB
}

func NewShareStore(db *sql.DB) *ShareStore {
	return &ShareStore{db: db}
}

// Grant lets sharedUserID view ownerUserID's groups and items. Self-grants
// are rejected before touching the database.
func (s *ShareStore) Grant(ownerUserID, sharedUserID int64) error {
	if ownerUserID == sharedUserID {
		return ErrSelfShare
	}

	granted, err := s.Exists(ownerUserID, sharedUserID)
	if err != nil {
		return err
	}
	if granted {
		return ErrAlreadyShared
	}

	_, err = s.db.Exec(
		`INSERT INTO shared_access (owner_user_id, shared_user_id) VALUES (?, ?)`,
		ownerUserID, sharedUserID,
	)
	if err != nil {
		return fmt.Errorf("insert shared access: %w", err)
	}
	return nil
}

// Revoke removes the grant. Returns true when a grant actually existed.
func (s *ShareStore) Revoke(ownerUserID, sharedUserID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM shared_access WHERE owner_user_id = ? AND shared_user_id = ?`,
		ownerUserID, sharedUserID,
	)
	if err != nil {
		return false, fmt.Errorf("delete shared access: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count > 0, nil
}

// Exists reports whether sharedUserID currently holds a grant on
// ownerUserID's data.
func (s *ShareStore) Exists(ownerUserID, sharedUserID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM shared_access WHERE owner_user_id = ? AND shared_user_id = ?`,
		ownerUserID, sharedUserID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check shared access: %w", err)
	}
	return count > 0, nil
}

// ListViewers returns the users the owner has granted viewing rights to,
// identified by their public share ids.
func (s *ShareStore) ListViewers(ownerUserID int64) ([]model.ShareLink, error) {
	rows, err := s.db.Query(
		`SELECT u.public_id, sa.created_at
		 FROM shared_access sa JOIN users u ON u.id = sa.shared_user_id
		 WHERE sa.owner_user_id = ? ORDER BY sa.created_at ASC, sa.id ASC`,
		ownerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list viewers: %w", err)
	}
	defer rows.Close()
	return scanShareLinks(rows)
}

// ListOwners returns the users who granted the given viewer access to
// their lists.
func (s *ShareStore) ListOwners(sharedUserID int64) ([]model.ShareLink, error) {
	rows, err := s.db.Query(
		`SELECT u.public_id, sa.created_at
		 FROM shared_access sa JOIN users u ON u.id = sa.owner_user_id
		 WHERE sa.shared_user_id = ? ORDER BY sa.created_at ASC, sa.id ASC`,
		sharedUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()
	return scanShareLinks(rows)
}

func scanShareLinks(rows *sql.Rows) ([]model.ShareLink, error) {
	var links []model.ShareLink
	for rows.Next() {
		var l model.ShareLink
		if err := rows.Scan(&l.UserPublicID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan share link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
