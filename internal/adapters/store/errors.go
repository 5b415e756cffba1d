package store

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("load state not found")
	ErrInvalidState = errors.New("invalid load state")
)
