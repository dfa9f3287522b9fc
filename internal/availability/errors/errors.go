package errors

import "errors"

var (
	ErrNotFound = errors.New("availability not found")

	ErrExceptionNotFound = errors.New("availability exception not found")
)
