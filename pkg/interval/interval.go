// Package interval implements half-open time interval algebra used to turn
// working hours and committed meetings into bookable windows.
package interval

import (
	"sort"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Empty reports whether the interval covers no time at all.
func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

// Overlaps is true iff a.Start < b.End && b.Start < a.End. Touching endpoints
// do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner Interval) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}

// Expand pads iv by before on the left and after on the right.
func Expand(iv Interval, before, after time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-before), End: iv.End.Add(after)}
}

// Merge returns the sorted union of list. Overlapping and touching intervals
// are coalesced; empty intervals are dropped.
func Merge(list []Interval) []Interval {
	sorted := make([]Interval, 0, len(list))
	for _, iv := range list {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes every blocked interval from r and returns the free
// remainder in ascending order. Remaining pieces are only split where a
// blocked interval actually cuts through r.
func Subtract(r Interval, blocked []Interval) []Interval {
	if r.Empty() {
		return nil
	}

	free := []Interval{}
	cursor := r.Start
	for _, b := range Merge(blocked) {
		if !b.End.After(cursor) {
			continue
		}
		if !b.Start.Before(r.End) {
			break
		}
		if b.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: b.Start})
		}
		cursor = b.End
		if !cursor.Before(r.End) {
			return free
		}
	}
	if cursor.Before(r.End) {
		free = append(free, Interval{Start: cursor, End: r.End})
	}
	return free
}
