package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks user-correctable request errors.
	ErrValidation = errors.New("validation error")
)
