package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches, including rows owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("already exists")
)
