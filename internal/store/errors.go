package store

import "errors"

// Domain sentinels surfaced by stores so handlers can map validation
// failures to stable responses without string matching.
var (
	// ErrGroupExists indicates the owner already has a group with that name.
	ErrGroupExists = errors.New("group already exists")

	// ErrLastGroup indicates a delete would remove the owner's only group.
	ErrLastGroup = errors.New("cannot delete the last group")

	// ErrSelfShare indicates an owner tried to grant access to themselves.
	ErrSelfShare = errors.New("cannot share a list with yourself")

	// ErrAlreadyShared indicates the grant for that user pair already exists.
	ErrAlreadyShared = errors.New("access already granted")

	// ErrEmailTaken indicates a registration with an email already in use.
	ErrEmailTaken = errors.New("email already registered")
)
