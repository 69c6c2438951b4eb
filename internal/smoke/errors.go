package smoke

import "errors"

// Sentinel kinds for smoke runs.
var (
	ErrChecksFailed = errors.New("smoke checks failed")
	ErrRequest      = errors.New("smoke request failed")
)
