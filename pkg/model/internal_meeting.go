package model

import (
	"slices"
	"time"

	"docket/pkg/interval"
)

type InternalMeetingStatus string

const (
	Scheduled  InternalMeetingStatus = "scheduled"
	InProgress InternalMeetingStatus = "in_progress"
	Done       InternalMeetingStatus = "completed"
	Cancelled  InternalMeetingStatus = "cancelled"
)

func (s InternalMeetingStatus) IsTerminal() bool {
	return s == Done || s == Cancelled
}

type SummaryPermission string

const (
	CreatorOnly  SummaryPermission = "creator_only"
	AllAttendees SummaryPermission = "all_attendees"
)

type ButtonState string

const (
	ButtonUpcoming     ButtonState = "upcoming"
	ButtonJoin         ButtonState = "join"
	ButtonWriteSummary ButtonState = "write_summary"
	ButtonViewSummary  ButtonState = "view_summary"
	ButtonNone         ButtonState = "none"
)

type MeetingSummary struct {
	Text        string    `json:"text" bson:"text"`
	Decisions   []string  `json:"decisions,omitempty" bson:"decisions,omitempty"`
	ActionItems []string  `json:"action_items,omitempty" bson:"action_items,omitempty"`
	WrittenBy   string    `json:"written_by" bson:"written_by"`
	WrittenAt   time.Time `json:"written_at" bson:"written_at"`
}

type InternalMeeting struct {
	ID                      string                `json:"id" bson:"_id"`
	Title                   string                `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Agenda                  string                `json:"agenda,omitempty" bson:"agenda,omitempty" validate:"omitempty,max=5000"`
	ScheduledAt             time.Time             `json:"scheduled_at" bson:"scheduled_at" validate:"required"`
	DurationMinutes         int                   `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=5,max=720"`
	EndsAt                  time.Time             `json:"ends_at" bson:"ends_at"`
	Location                string                `json:"location,omitempty" bson:"location,omitempty" validate:"required_without=VideoURL,max=200"`
	VideoURL                string                `json:"video_url,omitempty" bson:"video_url,omitempty" validate:"omitempty,url"`
	CreatedBy               string                `json:"created_by" bson:"created_by" validate:"required,min=1,max=64"`
	Participants            []string              `json:"participants" bson:"participants" validate:"required,min=1,max=100,unique,dive,required,max=64"`
	JoinButtonMinutesBefore int                   `json:"join_button_minutes_before" bson:"join_button_minutes_before" validate:"min=0,max=240"`
	JoinButtonMinutesAfter  int                   `json:"join_button_minutes_after" bson:"join_button_minutes_after" validate:"min=0,max=240"`
	SummaryPermission       SummaryPermission     `json:"summary_permission" bson:"summary_permission" validate:"required,oneof=creator_only all_attendees"`
	Summary                 *MeetingSummary       `json:"summary,omitempty" bson:"summary,omitempty"`
	Status                  InternalMeetingStatus `json:"status" bson:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
	CancellationReason      string                `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	StartedAt               *time.Time            `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt             *time.Time            `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt               time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at" bson:"updated_at"`
}

func (m *InternalMeeting) Interval() interval.Interval {
	return interval.New(m.ScheduledAt, m.ScheduledAt.Add(time.Duration(m.DurationMinutes)*time.Minute))
}

func (m *InternalMeeting) HasSummary() bool {
	return m.Summary != nil && m.Summary.Text != ""
}

func (m *InternalMeeting) IsParticipant(userID string) bool {
	return slices.Contains(m.Participants, userID)
}

type InternalStatusChange struct {
	From      []InternalMeetingStatus
	To        InternalMeetingStatus
	Reason    string
	Summary   *MeetingSummary
	StartedAt *time.Time
	At        time.Time
}

type SummaryRequest struct {
	RequesterID string   `json:"requester_id" validate:"required,min=1,max=64"`
	Text        string   `json:"text" validate:"required,min=1,max=20000"`
	Decisions   []string `json:"decisions,omitempty" validate:"omitempty,max=50,dive,required,max=1000"`
	ActionItems []string `json:"action_items,omitempty" validate:"omitempty,max=50,dive,required,max=1000"`
}

type JoinRequest struct {
	UserID string `json:"user_id" validate:"required,min=1,max=64"`
}

type InternalCancelRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=1000"`
}
