package model

import "time"

// Group is a named bucket partitioning a user's items. The display name is
// the category key; items reference it by name, not by id.
type Group struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is a single checklist entry. Position defines display order within
// (user_id, category).
type Item struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Checked   bool      `json:"checked"`
	Category  string    `json:"category"`
	Value     string    `json:"value,omitempty"`
	Link      string    `json:"link,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
