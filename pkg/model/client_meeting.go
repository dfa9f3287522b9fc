package model

import (
	"time"

	"docket/pkg/interval"
)

type MeetingType string

const (
	InPerson MeetingType = "in_person"
	Remote   MeetingType = "remote"
)

type ClientMeetingStatus string

const (
	Pending           ClientMeetingStatus = "pending"
	Confirmed         ClientMeetingStatus = "confirmed"
	Completed         ClientMeetingStatus = "completed"
	CancelledByClient ClientMeetingStatus = "cancelled_by_client"
	CancelledByLawyer ClientMeetingStatus = "cancelled_by_lawyer"
	NoShow            ClientMeetingStatus = "no_show"
)

// ActiveClientStatuses are the only states a client meeting can leave.
var ActiveClientStatuses = []ClientMeetingStatus{Pending, Confirmed}

func (s ClientMeetingStatus) IsTerminal() bool {
	switch s {
	case Completed, CancelledByClient, CancelledByLawyer, NoShow:
		return true
	}
	return false
}

func (s ClientMeetingStatus) IsCancelled() bool {
	return s == CancelledByClient || s == CancelledByLawyer
}

type ClientMeeting struct {
	ID                 string              `json:"id" bson:"_id"`
	LawyerID           string              `json:"lawyer_id" bson:"lawyer_id"`
	ClientID           string              `json:"client_id" bson:"client_id"`
	CaseID             string              `json:"case_id,omitempty" bson:"case_id,omitempty"`
	BookingLinkID      string              `json:"booking_link_id" bson:"booking_link_id"`
	ScheduledAt        time.Time           `json:"scheduled_at" bson:"scheduled_at"`
	DurationMinutes    int                 `json:"duration_minutes" bson:"duration_minutes"`
	EndsAt             time.Time           `json:"ends_at" bson:"ends_at"`
	MeetingType        MeetingType         `json:"meeting_type" bson:"meeting_type"`
	Location           string              `json:"location,omitempty" bson:"location,omitempty"`
	Notes              string              `json:"notes,omitempty" bson:"notes,omitempty"`
	Status             ClientMeetingStatus `json:"status" bson:"status"`
	CancellationReason string              `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	OutcomeNote        string              `json:"outcome_note,omitempty" bson:"outcome_note,omitempty"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}

func (m *ClientMeeting) Interval() interval.Interval {
	return interval.New(m.ScheduledAt, m.ScheduledAt.Add(time.Duration(m.DurationMinutes)*time.Minute))
}

// StatusChange is applied by repositories only when the stored status is
// still one of From.
type ClientStatusChange struct {
	From        []ClientMeetingStatus
	To          ClientMeetingStatus
	Reason      string
	OutcomeNote string
	At          time.Time
}

type ReservationRequest struct {
	Start           time.Time   `json:"start" validate:"required"`
	DurationMinutes int         `json:"duration_minutes" validate:"required,min=1,max=480"`
	MeetingType     MeetingType `json:"meeting_type,omitempty" validate:"omitempty,oneof=in_person remote"`
	Notes           string      `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type CancelRequest struct {
	CancelledBy string `json:"cancelled_by" validate:"required,oneof=client lawyer"`
	Reason      string `json:"reason" validate:"required,min=1,max=1000"`
}

// Status maps the cancelling party to its terminal status.
func (r CancelRequest) Status() ClientMeetingStatus {
	if r.CancelledBy == "lawyer" {
		return CancelledByLawyer
	}
	return CancelledByClient
}

type CompleteRequest struct {
	OutcomeNote string `json:"outcome_note,omitempty" validate:"omitempty,max=5000"`
}
