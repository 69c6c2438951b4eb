package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrReadBody = errors.New("reading request body")
	ErrPanic    = errors.New("handler panic")
)
