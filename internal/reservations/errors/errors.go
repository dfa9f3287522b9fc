package errors

import "errors"

var (
	ErrLockHeld = errors.New("reservation lock is held")

	ErrLockTimeout = errors.New("timed out waiting for reservation lock")
)
