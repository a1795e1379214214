package store

import (
	"database/sql"
	"fmt"

	"github.com/pmoura/listinha/internal/model"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var checked int

	err := scanner.Scan(
		&item.ID, &item.UserID, &item.Name, &checked, &item.Category,
		&item.Value, &item.Link, &item.Position, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Checked = checked != 0
	return &item, nil
}

const itemCols = `id, user_id, name, checked, category, value, link, position, created_at`

func (s *ItemStore) GetByID(id int64) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListByCategory returns the user's items for one category ordered by
// position. Duplicate positions are tolerated; id breaks ties.
func (s *ItemStore) ListByCategory(userID int64, category string) ([]model.Item, error) {
	rows, err := s.db.Query(
		`SELECT `+itemCols+` FROM items WHERE user_id = ? AND category = ? ORDER BY position ASC, id ASC`,
		userID, category,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Create appends an item to the end of the category: position is one past
// the current maximum, or 0 for an empty category.
func (s *ItemStore) Create(userID int64, category, name, value, link string) (*model.Item, error) {
	result, err := s.db.Exec(
		`INSERT INTO items (user_id, name, category, value, link, position)
		 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM items WHERE user_id = ? AND category = ?))`,
		userID, name, category, value, link, userID, category,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Toggle flips the item's checked flag and repartitions its category so all
// unchecked items precede all checked ones. The partition is stable: items
// whose checked state is equal keep their relative order.
func (s *ItemStore) Toggle(id int64) (*model.Item, error) {
	item, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	checked := 0
	if !item.Checked {
		checked = 1
	}
	if _, err := tx.Exec(`UPDATE items SET checked = ? WHERE id = ?`, checked, id); err != nil {
		return nil, fmt.Errorf("toggle checked: %w", err)
	}

	if err := repartition(tx, item.UserID, item.Category); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(id)
}

// repartition rewrites positions within (user, category) to the stable
// partition order: unchecked first, then checked, each preserving the
// existing position order.
func repartition(tx *sql.Tx, userID int64, category string) error {
	rows, err := tx.Query(
		`SELECT id FROM items WHERE user_id = ? AND category = ? ORDER BY checked ASC, position ASC, id ASC`,
		userID, category,
	)
	if err != nil {
		return fmt.Errorf("repartition select: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var itemID int64
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return fmt.Errorf("repartition scan: %w", err)
		}
		ids = append(ids, itemID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("repartition rows: %w", err)
	}
	rows.Close()

	for pos, itemID := range ids {
		if _, err := tx.Exec(`UPDATE items SET position = ? WHERE id = ?`, pos, itemID); err != nil {
			return fmt.Errorf("repartition update: %w", err)
		}
	}
	return nil
}

func (s *ItemStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ResetCategory deletes every item in the category and reports how many
// were removed, so callers can treat an already-empty category as a no-op.
func (s *ItemStore) ResetCategory(userID int64, category string) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM items WHERE user_id = ? AND category = ?`,
		userID, category,
	)
	if err != nil {
		return 0, fmt.Errorf("reset category: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// Import appends copies of the given items to the user's category,
// preserving their relative order and checked flags. Positions continue
// after the category's current maximum. The copy is one transaction.
func (s *ItemStore) Import(userID int64, category string, items []model.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(position) + 1, 0) FROM items WHERE user_id = ? AND category = ?`,
		userID, category,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("import max position: %w", err)
	}

	for i, item := range items {
		checked := 0
		if item.Checked {
			checked = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO items (user_id, name, checked, category, value, link, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, item.Name, checked, category, item.Value, item.Link, next+i,
		); err != nil {
			return 0, fmt.Errorf("import item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(items), nil
}

// Reorder rewrites positions to the 0-based index of each id in orderedIDs.
// Ids not belonging to (user, category) are ignored and a repeated id keeps
// its first slot. The whole rewrite is one transaction so a failure cannot
// leave the category half-reordered.
func (s *ItemStore) Reorder(userID int64, category string, orderedIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT id FROM items WHERE user_id = ? AND category = ?`,
		userID, category,
	)
	if err != nil {
		return fmt.Errorf("reorder select: %w", err)
	}
	inCategory := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("reorder scan: %w", err)
		}
		inCategory[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("reorder rows: %w", err)
	}
	rows.Close()

	pos := 0
	seen := make(map[int64]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !inCategory[id] || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.Exec(`UPDATE items SET position = ? WHERE id = ?`, pos, id); err != nil {
			return fmt.Errorf("reorder update: %w", err)
		}
		pos++
	}

	return tx.Commit()
}
