package admin

import "errors"

var (
	// ErrAdminNotFound is returned when the user is not in the admin registry
	ErrAdminNotFound = errors.New("admin not found")

	// ErrAdminExists is returned when granting admin to a user who already has it
	ErrAdminExists = errors.New("user is already an admin")

	// ErrInvalidUserID is returned for an empty user id
	ErrInvalidUserID = errors.New("user id is required")
)
