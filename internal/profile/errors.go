package profile

import "errors"

// Domain-specific errors for profile operations.
var (
	// ErrNotFound is returned when a connection or button id is unknown.
	ErrNotFound = errors.New("profile: not found")

	// ErrInvalid is returned when a profile fails validation.
	ErrInvalid = errors.New("profile: invalid")

	// ErrInvalidColor is returned when a button colour is not recognised.
	ErrInvalidColor = errors.New("profile: invalid button color")
)
