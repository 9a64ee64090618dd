package storage

import "errors"

// Storage errors shared by all goal store implementations.
var (
	// ErrNotFound is returned when a requested goal does not exist.
	ErrNotFound = errors.New("goal not found")

	// ErrDuplicateKey is returned when creating a goal whose id
	// already exists.
	ErrDuplicateKey = errors.New("duplicate goal id")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
