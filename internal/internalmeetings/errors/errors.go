package errors

import "errors"

var (
	ErrNotFound = errors.New("internal meeting not found")

	ErrStatusConflict = errors.New("internal meeting status changed concurrently")
)
