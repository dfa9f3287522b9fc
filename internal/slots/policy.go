package slots

import (
	"time"

	"docket/pkg/interval"
	"docket/pkg/model"
)

// Horizon is the closed range of acceptable start instants
// [now + min_booking_hours, now + max_booking_days].
type Horizon struct {
	Earliest time.Time
	Latest   time.Time
}

func NewHorizon(p model.BookingPolicy, now time.Time) Horizon {
	return Horizon{
		Earliest: now.Add(time.Duration(p.MinBookingHours) * time.Hour),
		Latest:   now.Add(time.Duration(p.MaxBookingDays) * 24 * time.Hour),
	}
}

func (h Horizon) Admits(start time.Time) bool {
	return !start.Before(h.Earliest) && !start.After(h.Latest)
}

// committedWindow pads every committed meeting by the policy buffers and
// merges the result into a sorted blocked list.
func committedWindow(p model.BookingPolicy, meetings []interval.Interval) []interval.Interval {
	before, after := p.Buffers()
	padded := make([]interval.Interval, 0, len(meetings))
	for _, m := range meetings {
		padded = append(padded, interval.Expand(m, before, after))
	}
	return interval.Merge(padded)
}
