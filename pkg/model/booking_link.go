package model

import "time"

type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelWhatsApp NotificationChannel = "whatsapp"
)

type LinkState string

const (
	LinkIssued  LinkState = "issued"
	LinkUsed    LinkState = "used"
	LinkExpired LinkState = "expired"
)

// BookingLink grants one client a single reservation with one lawyer.
type BookingLink struct {
	ID                  string              `json:"id" bson:"_id"`
	LawyerID            string              `json:"lawyer_id" bson:"lawyer_id" validate:"required,min=1,max=64"`
	ClientID            string              `json:"client_id" bson:"client_id" validate:"required,min=1,max=64"`
	CaseID              string              `json:"case_id,omitempty" bson:"case_id,omitempty" validate:"omitempty,max=64"`
	Token               string              `json:"token" bson:"token"`
	NotificationChannel NotificationChannel `json:"notification_channel" bson:"notification_channel" validate:"required,oneof=email whatsapp"`
	CreatedAt           time.Time           `json:"created_at" bson:"created_at"`
	ExpiresAt           time.Time           `json:"expires_at" bson:"expires_at"`
	IsUsed              bool                `json:"is_used" bson:"is_used"`
	UsedAt              *time.Time          `json:"used_at,omitempty" bson:"used_at,omitempty"`
	MeetingID           string              `json:"meeting_id,omitempty" bson:"meeting_id,omitempty"`
}

// IsValid is !is_used && now < expires_at.
func (l *BookingLink) IsValid(now time.Time) bool {
	return !l.IsUsed && now.Before(l.ExpiresAt)
}

// State is computed, never stored: expiry is a predicate over now.
func (l *BookingLink) State(now time.Time) LinkState {
	if l.IsUsed {
		return LinkUsed
	}
	if !now.Before(l.ExpiresAt) {
		return LinkExpired
	}
	return LinkIssued
}

type BookingLinkRequest struct {
	LawyerID            string              `json:"lawyer_id" validate:"required,min=1,max=64"`
	ClientID            string              `json:"client_id" validate:"required,min=1,max=64"`
	CaseID              string              `json:"case_id,omitempty" validate:"omitempty,max=64"`
	NotificationChannel NotificationChannel `json:"notification_channel" validate:"required,oneof=email whatsapp"`
	TTLHours            int                 `json:"ttl_hours,omitempty" validate:"omitempty,min=1,max=2160"`
}
