package errors

import "errors"

var (
	ErrNotFound = errors.New("invitation not found")

	ErrInvalidID = errors.New("invalid invitation ID format")
)
