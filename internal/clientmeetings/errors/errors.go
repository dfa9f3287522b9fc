package errors

import "errors"

var (
	ErrNotFound = errors.New("client meeting not found")

	ErrStatusConflict = errors.New("client meeting status changed concurrently")
)
