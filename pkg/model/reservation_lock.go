package model

import "time"

// ReservationLock is an advisory lock document serializing reservations for
// one lawyer. The _id carries the lock key so a second insert fails with a
// duplicate key error.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
