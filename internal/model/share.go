package model

import "time"

// SharedAccess is a directed grant: SharedUserID may view OwnerUserID's
// groups and items read-only.
type SharedAccess struct {
	ID           int64     `json:"id"`
	OwnerUserID  int64     `json:"owner_user_id"`
	SharedUserID int64     `json:"shared_user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShareLink is one side of a grant as exposed over the API: the other
// user's public id plus when the grant was created.
type ShareLink struct {
	UserPublicID string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
