package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrUniqueViolation reports an insert that collided with an existing
	// name. It only happens when concurrent creates race past the
	// application-level duplicate check.
	ErrUniqueViolation = errors.New("unique constraint violated")
	ErrUnknownColumn   = errors.New("unknown column")
)
