package calendar

import (
	"bytes"
	"fmt"
	"time"

	"docket/pkg/model"

	ical "github.com/emersion/go-ical"
)

const (
	ProductID   = "-//docket//meetings//EN"
	ContentType = "text/calendar; charset=utf-8"
	uidDomain   = "docket"
)

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	return cal
}

func newEvent(uid string, start, end, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("%s@%s", uid, uidDomain))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	return event
}

func addAttendee(event *ical.Event, userID string) {
	prop := ical.NewProp(ical.PropAttendee)
	prop.Value = "urn:docket:user:" + userID
	event.Props[ical.PropAttendee] = append(event.Props[ical.PropAttendee], *prop)
}

func encode(cal *ical.Calendar) ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func clientStatus(s model.ClientMeetingStatus) string {
	switch {
	case s == model.Pending:
		return "TENTATIVE"
	case s.IsCancelled():
		return "CANCELLED"
	default:
		return "CONFIRMED"
	}
}

// ClientMeeting renders a single-event calendar for a client meeting.
func ClientMeeting(m *model.ClientMeeting) ([]byte, error) {
	iv := m.Interval()
	event := newEvent(m.ID, iv.Start, iv.End, m.UpdatedAt)
	event.Props.SetText(ical.PropSummary, "Client meeting")
	event.Props.SetText(ical.PropStatus, clientStatus(m.Status))
	if m.Location != "" {
		event.Props.SetText(ical.PropLocation, m.Location)
	}
	if m.Notes != "" {
		event.Props.SetText(ical.PropDescription, m.Notes)
	}
	addAttendee(event, m.LawyerID)
	addAttendee(event, m.ClientID)

	cal := newCalendar()
	cal.Children = append(cal.Children, event.Component)
	return encode(cal)
}

// InternalMeeting renders a single-event calendar for an internal meeting.
// A video URL takes the place of the location when none is set.
func InternalMeeting(m *model.InternalMeeting) ([]byte, error) {
	iv := m.Interval()
	event := newEvent(m.ID, iv.Start, iv.End, m.UpdatedAt)
	event.Props.SetText(ical.PropSummary, m.Title)
	if m.Agenda != "" {
		event.Props.SetText(ical.PropDescription, m.Agenda)
	}
	switch {
	case m.Location != "":
		event.Props.SetText(ical.PropLocation, m.Location)
	case m.VideoURL != "":
		event.Props.SetText(ical.PropLocation, m.VideoURL)
	}
	if m.VideoURL != "" {
		event.Props.SetText(ical.PropURL, m.VideoURL)
	}
	status := "CONFIRMED"
	if m.Status == model.Cancelled {
		status = "CANCELLED"
	}
	event.Props.SetText(ical.PropStatus, status)
	for _, p := range m.Participants {
		addAttendee(event, p)
	}

	cal := newCalendar()
	cal.Children = append(cal.Children, event.Component)
	return encode(cal)
}
