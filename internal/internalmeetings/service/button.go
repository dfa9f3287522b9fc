package service

import (
	"time"

	"docket/pkg/model"
)

// CanEditSummary reports whether requesterID may write the meeting summary.
func CanEditSummary(m *model.InternalMeeting, requesterID string) bool {
	if m.Status == model.Cancelled {
		return false
	}
	return m.SummaryPermission == model.AllAttendees || m.CreatedBy == requesterID
}

// JoinWindow is [scheduled_at - before, scheduled_at + duration + after],
// closed at both ends.
func JoinWindow(m *model.InternalMeeting) (time.Time, time.Time) {
	before := time.Duration(m.JoinButtonMinutesBefore) * time.Minute
	after := time.Duration(m.JoinButtonMinutesAfter) * time.Minute
	iv := m.Interval()
	return iv.Start.Add(-before), iv.End.Add(after)
}

// ProjectButtonState derives the action a viewer is offered at now. It is
// recomputed on every read and never stored.
func ProjectButtonState(m *model.InternalMeeting, viewerID string, now time.Time) model.ButtonState {
	summaryState := model.ButtonViewSummary
	if CanEditSummary(m, viewerID) {
		summaryState = model.ButtonWriteSummary
	}

	switch m.Status {
	case model.Cancelled:
		return model.ButtonNone
	case model.Done:
		if m.HasSummary() {
			return model.ButtonViewSummary
		}
		return summaryState
	}

	opens, closes := JoinWindow(m)
	switch {
	case now.Before(opens):
		return model.ButtonUpcoming
	case !now.After(closes):
		return model.ButtonJoin
	default:
		return summaryState
	}
}
