package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateConnection is returned when an insert collides with the
	// (user_id, provider) uniqueness constraint outside of an upsert path
	ErrDuplicateConnection = errors.New("provider connection already exists")
)
