package service

import (
	"testing"
	"time"

	"docket/pkg/model"

	"github.com/stretchr/testify/assert"
)

func buttonMeeting(status model.InternalMeetingStatus, permission model.SummaryPermission) *model.InternalMeeting {
	return &model.InternalMeeting{
		ID:                      "im1",
		Title:                   "Case review",
		ScheduledAt:             time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		DurationMinutes:         60,
		CreatedBy:               "creator",
		Participants:            []string{"creator", "associate"},
		JoinButtonMinutesBefore: 10,
		JoinButtonMinutesAfter:  15,
		SummaryPermission:       permission,
		Status:                  status,
	}
}

func TestProjectButtonState_Window(t *testing.T) {
	m := buttonMeeting(model.Scheduled, model.CreatorOnly)
	opens := m.ScheduledAt.Add(-10 * time.Minute)
	closes := m.ScheduledAt.Add(75 * time.Minute)

	tests := []struct {
		name   string
		viewer string
		now    time.Time
		want   model.ButtonState
	}{
		{"well before", "creator", m.ScheduledAt.Add(-24 * time.Hour), model.ButtonUpcoming},
		{"just before window", "creator", opens.Add(-time.Nanosecond), model.ButtonUpcoming},
		{"window opens", "creator", opens, model.ButtonJoin},
		{"during meeting", "associate", m.ScheduledAt.Add(30 * time.Minute), model.ButtonJoin},
		{"window closes", "associate", closes, model.ButtonJoin},
		{"after window editor", "creator", closes.Add(time.Nanosecond), model.ButtonWriteSummary},
		{"after window non editor", "associate", closes.Add(time.Nanosecond), model.ButtonViewSummary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectButtonState(m, tt.viewer, tt.now))
		})
	}
}

func TestProjectButtonState_InProgressFollowsClock(t *testing.T) {
	m := buttonMeeting(model.InProgress, model.AllAttendees)
	assert.Equal(t, model.ButtonJoin, ProjectButtonState(m, "associate", m.ScheduledAt))
	assert.Equal(t, model.ButtonWriteSummary, ProjectButtonState(m, "associate", m.ScheduledAt.Add(3*time.Hour)))
}

func TestProjectButtonState_Completed(t *testing.T) {
	m := buttonMeeting(model.Done, model.CreatorOnly)
	times := []time.Time{
		m.ScheduledAt.Add(-time.Hour),
		m.ScheduledAt,
		m.ScheduledAt.Add(5 * time.Hour),
	}
	for _, now := range times {
		assert.Equal(t, model.ButtonWriteSummary, ProjectButtonState(m, "creator", now))
		assert.Equal(t, model.ButtonViewSummary, ProjectButtonState(m, "associate", now))
	}

	m.Summary = &model.MeetingSummary{Text: "Agreed on filing strategy", WrittenBy: "creator"}
	for _, now := range times {
		assert.Equal(t, model.ButtonViewSummary, ProjectButtonState(m, "creator", now))
	}
}

func TestProjectButtonState_Cancelled(t *testing.T) {
	m := buttonMeeting(model.Cancelled, model.AllAttendees)
	for _, now := range []time.Time{m.ScheduledAt.Add(-time.Hour), m.ScheduledAt, m.ScheduledAt.Add(5 * time.Hour)} {
		assert.Equal(t, model.ButtonNone, ProjectButtonState(m, "creator", now))
	}
}

func TestProjectButtonState_ZeroWindow(t *testing.T) {
	m := buttonMeeting(model.Scheduled, model.CreatorOnly)
	m.JoinButtonMinutesBefore = 0
	m.JoinButtonMinutesAfter = 0
	assert.Equal(t, model.ButtonUpcoming, ProjectButtonState(m, "creator", m.ScheduledAt.Add(-time.Nanosecond)))
	assert.Equal(t, model.ButtonJoin, ProjectButtonState(m, "creator", m.ScheduledAt))
	assert.Equal(t, model.ButtonJoin, ProjectButtonState(m, "creator", m.ScheduledAt.Add(time.Hour)))
	assert.Equal(t, model.ButtonWriteSummary, ProjectButtonState(m, "creator", m.ScheduledAt.Add(time.Hour+time.Nanosecond)))
}

func TestCanEditSummary(t *testing.T) {
	tests := []struct {
		name       string
		status     model.InternalMeetingStatus
		permission model.SummaryPermission
		requester  string
		want       bool
	}{
		{"creator only, creator", model.Scheduled, model.CreatorOnly, "creator", true},
		{"creator only, participant", model.Scheduled, model.CreatorOnly, "associate", false},
		{"all attendees, participant", model.InProgress, model.AllAttendees, "associate", true},
		{"completed keeps capability", model.Done, model.CreatorOnly, "creator", true},
		{"cancelled denies creator", model.Cancelled, model.CreatorOnly, "creator", false},
		{"cancelled denies attendees", model.Cancelled, model.AllAttendees, "associate", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEditSummary(buttonMeeting(tt.status, tt.permission), tt.requester))
		})
	}
}
