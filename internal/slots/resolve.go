package slots

import (
	"fmt"
	"time"

	"docket/pkg/interval"
	"docket/pkg/model"
)

// civilDate is a calendar date with no zone attached.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

func parseCivil(s string) (civilDate, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return civilDate{}, err
	}
	return civilOf(t), nil
}

func (c civilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.year, c.month, c.day)
}

func (c civilDate) weekday() model.Weekday {
	return model.WeekdayOf(time.Date(c.year, c.month, c.day, 12, 0, 0, 0, time.UTC))
}

// at returns the instant minutes after local midnight. Minutes past 24:00
// and DST gaps are normalised by time.Date.
func (c civilDate) at(minutes int, loc *time.Location) time.Time {
	return time.Date(c.year, c.month, c.day, 0, minutes, 0, 0, loc)
}

// span is the whole local day [00:00, 24:00).
func (c civilDate) span(loc *time.Location) interval.Interval {
	return interval.New(c.at(0, loc), c.at(24*60, loc))
}

// ResolveDay returns the working intervals of date in the lawyer's zone.
// An exception for the date replaces the weekly template entirely.
func ResolveDay(a *model.Availability, exc *model.AvailabilityException, date time.Time) ([]interval.Interval, error) {
	loc, err := a.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", a.TimeZone, err)
	}
	return resolveDay(a, exc, civilOf(date), loc)
}

func resolveDay(a *model.Availability, exc *model.AvailabilityException, date civilDate, loc *time.Location) ([]interval.Interval, error) {
	var slots []model.TimeSlot
	if exc != nil {
		slots = exc.Slots()
	} else {
		slots = a.Day(date.weekday()).EffectiveSlots()
	}

	out := make([]interval.Interval, 0, len(slots))
	for _, slot := range slots {
		start, end, err := slot.Minutes()
		if err != nil {
			return nil, fmt.Errorf("invalid slot on %s: %w", date, err)
		}
		iv := interval.New(date.at(start, loc), date.at(end, loc))
		if !iv.Empty() {
			out = append(out, iv)
		}
	}
	return out, nil
}
