package events

import (
	"context"
	"time"
)

const (
	BookingLinkIssued      = "booking_link.issued"
	BookingLinkDeleted     = "booking_link.deleted"
	ClientMeetingReserved  = "client_meeting.reserved"
	ClientMeetingStatus    = "client_meeting.status_changed"
	InternalMeetingCreated = "internal_meeting.created"
	InternalMeetingStatus  = "internal_meeting.status_changed"
	InternalMeetingSummary = "internal_meeting.summary_written"
)

const SchemaVersion = "1"

// Event is a domain fact published after the write that produced it has
// been committed. Key selects the partition.
type Event struct {
	Type       string
	Key        string
	OccurredAt time.Time
	Payload    any
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type noopPublisher struct{}

// Noop discards every event; used when EVENTS_ENABLED is false.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func (noopPublisher) Close() error { return nil }

type BookingLinkIssuedPayload struct {
	LinkID              string    `json:"link_id"`
	LawyerID            string    `json:"lawyer_id"`
	ClientID            string    `json:"client_id"`
	CaseID              string    `json:"case_id,omitempty"`
	NotificationChannel string    `json:"notification_channel"`
	Token               string    `json:"token"`
	ExpiresAt           time.Time `json:"expires_at"`
}

type BookingLinkDeletedPayload struct {
	LinkID string `json:"link_id"`
}

type MeetingReservedPayload struct {
	MeetingID       string    `json:"meeting_id"`
	LinkID          string    `json:"link_id"`
	LawyerID        string    `json:"lawyer_id"`
	ClientID        string    `json:"client_id"`
	CaseID          string    `json:"case_id,omitempty"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}

type StatusChangedPayload struct {
	MeetingID string `json:"meeting_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason,omitempty"`
}

type InternalMeetingCreatedPayload struct {
	MeetingID    string    `json:"meeting_id"`
	Title        string    `json:"title"`
	CreatedBy    string    `json:"created_by"`
	Participants []string  `json:"participants"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

type SummaryWrittenPayload struct {
	MeetingID string `json:"meeting_id"`
	WrittenBy string `json:"written_by"`
}
