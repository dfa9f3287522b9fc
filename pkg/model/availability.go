package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// Weekdays is indexed by time.Weekday.
var Weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func WeekdayOf(t time.Time) Weekday {
	return Weekdays[t.Weekday()]
}

func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// TimeSlot is a wall-clock window within one day in the lawyer's time zone.
// End may be "24:00" to reach midnight.
type TimeSlot struct {
	Start string `json:"start" bson:"start" validate:"required,clock"`
	End   string `json:"end" bson:"end" validate:"required,clock"`
}

// Minutes returns the slot bounds as minutes after midnight.
func (s TimeSlot) Minutes() (int, int, error) {
	start, err := ParseClock(s.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(s.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseClock parses HH:MM (00:00-23:59, or 24:00) into minutes after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h == 24 && m == 0 {
		return 24 * 60, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q: out of range", s)
	}
	return h*60 + m, nil
}

type DaySchedule struct {
	Enabled bool       `json:"enabled" bson:"enabled"`
	Slots   []TimeSlot `json:"slots" bson:"slots" validate:"omitempty,max=48,dive"`
}

// EffectiveSlots honours the enabled flag: a disabled day has no slots.
func (d DaySchedule) EffectiveSlots() []TimeSlot {
	if !d.Enabled {
		return nil
	}
	return d.Slots
}

type BufferPlacement string

const (
	BufferBoth  BufferPlacement = "both"
	BufferAfter BufferPlacement = "after"
)

type BookingPolicy struct {
	BufferMinutes    int             `json:"buffer_minutes" bson:"buffer_minutes" validate:"min=0,max=240"`
	MinBookingHours  int             `json:"min_booking_hours" bson:"min_booking_hours" validate:"min=0,max=720"`
	MaxBookingDays   int             `json:"max_booking_days" bson:"max_booking_days" validate:"min=1,max=365"`
	AllowedDurations []int           `json:"allowed_durations" bson:"allowed_durations" validate:"max=12,dive,min=1,max=480"`
	DefaultLocation  string          `json:"default_location,omitempty" bson:"default_location,omitempty" validate:"omitempty,max=200"`
	AutoConfirm      bool            `json:"auto_confirm" bson:"auto_confirm"`
	BufferPlacement  BufferPlacement `json:"buffer_placement,omitempty" bson:"buffer_placement,omitempty" validate:"omitempty,oneof=both after"`
}

// Allows reports whether minutes is one of the positive allowed durations.
func (p BookingPolicy) Allows(minutes int) bool {
	for _, d := range p.AllowedDurations {
		if d > 0 && d == minutes {
			return true
		}
	}
	return false
}

// HasDurations is false when no positive duration is configured.
func (p BookingPolicy) HasDurations() bool {
	for _, d := range p.AllowedDurations {
		if d > 0 {
			return true
		}
	}
	return false
}

// Buffers returns the padding applied before and after a committed meeting.
func (p BookingPolicy) Buffers() (time.Duration, time.Duration) {
	b := time.Duration(p.BufferMinutes) * time.Minute
	if p.BufferPlacement == BufferAfter {
		return 0, b
	}
	return b, b
}

// Availability is a lawyer's recurring weekly template together with the
// booking policy that constrains it.
type Availability struct {
	LawyerID  string                  `json:"lawyer_id" bson:"_id" validate:"required,min=1,max=64"`
	TimeZone  string                  `json:"time_zone" bson:"time_zone" validate:"required,timezone"`
	Weekly    map[Weekday]DaySchedule `json:"weekly" bson:"weekly" validate:"required,dive,keys,weekday,endkeys"`
	Policy    BookingPolicy           `json:"policy" bson:"policy"`
	UpdatedAt time.Time               `json:"updated_at" bson:"updated_at"`
}

func (a *Availability) Location() (*time.Location, error) {
	return time.LoadLocation(a.TimeZone)
}

// Day returns the template entry for the weekday; unknown days are disabled.
func (a *Availability) Day(d Weekday) DaySchedule {
	if a.Weekly == nil {
		return DaySchedule{}
	}
	return a.Weekly[d]
}

// AvailabilityException overrides the weekly template for one calendar date.
// A blocked date ignores CustomSlots; otherwise CustomSlots replaces the
// template for that date, and an empty list means no availability.
type AvailabilityException struct {
	LawyerID    string     `json:"lawyer_id" bson:"lawyer_id" validate:"required,min=1,max=64"`
	Date        string     `json:"date" bson:"date" validate:"required,isodate"`
	IsBlocked   bool       `json:"is_blocked" bson:"is_blocked"`
	CustomSlots []TimeSlot `json:"custom_slots,omitempty" bson:"custom_slots,omitempty" validate:"omitempty,max=48,dive"`
	Reason      string     `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=200"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// Slots returns the replacement slot list; a blocked date yields none.
func (e *AvailabilityException) Slots() []TimeSlot {
	if e.IsBlocked {
		return nil
	}
	return e.CustomSlots
}
