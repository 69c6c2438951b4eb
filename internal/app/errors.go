package service

import "errors"

// Outcome kinds returned by Resource operations. Callers map them to
// responses with errors.Is; a validation failure additionally carries a
// *validate.Error listing the rejected fields.
var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate")
	ErrInvalidID  = errors.New("invalid id")
)
