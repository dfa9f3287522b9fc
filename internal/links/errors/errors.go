package errors

import "errors"

var (
	ErrNotFound = errors.New("booking link not found")

	// ErrAlreadyUsed is returned by the conditional mark-used update when
	// the link was consumed by a concurrent reservation.
	ErrAlreadyUsed = errors.New("booking link already used")

	// ErrExpired is returned by mark-used when the link is unused but its
	// expiry has passed at the time of the update.
	ErrExpired = errors.New("booking link expired")
)
