// Package slots turns a lawyer's weekly template, date exceptions, booking
// policy and committed meetings into bookable start times.
package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityerrors "docket/internal/availability/errors"
	"docket/pkg/clock"
	"docket/pkg/config"
	apperrors "docket/pkg/errors"
	"docket/pkg/interval"
	"docket/pkg/model"

	"github.com/teambition/rrule-go"
)

type TemplateReader interface {
	Get(ctx context.Context, lawyerID string) (*model.Availability, error)
}

type ExceptionReader interface {
	ListRange(ctx context.Context, lawyerID, from, to string) ([]*model.AvailabilityException, error)
}

type ClientMeetingReader interface {
	FindCommitted(ctx context.Context, lawyerID string, from, to time.Time) ([]*model.ClientMeeting, error)
}

type InternalMeetingReader interface {
	FindCommittedForParticipant(ctx context.Context, userID string, from, to time.Time) ([]*model.InternalMeeting, error)
}

type Sources struct {
	Templates        TemplateReader
	Exceptions       ExceptionReader
	ClientMeetings   ClientMeetingReader
	InternalMeetings InternalMeetingReader
}

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Date  string    `json:"date"`
}

type Generator struct {
	src   Sources
	clock clock.Clock
	cfg   *config.Config
}

func NewGenerator(src Sources, clk clock.Clock, cfg *config.Config) *Generator {
	return &Generator{
		src:   src,
		clock: clk,
		cfg:   cfg,
	}
}

// plan is everything about one lawyer that does not depend on the date.
type plan struct {
	availability *model.Availability
	loc          *time.Location
	horizon      Horizon
}

func (g *Generator) load(ctx context.Context, lawyerID string) (*plan, error) {
	a, err := g.src.Templates.Get(ctx, lawyerID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability", lawyerID)
		}
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}
	loc, err := a.Location()
	if err != nil {
		return nil, apperrors.Internal("Stored availability has an invalid time zone", err)
	}
	return &plan{
		availability: a,
		loc:          loc,
		horizon:      NewHorizon(a.Policy, g.clock.Now()),
	}, nil
}

func durationError(minutes int, p model.BookingPolicy) error {
	return apperrors.Validation("Duration is not allowed", map[string]any{
		"duration":          minutes,
		"allowed_durations": p.AllowedDurations,
	})
}

func (g *Generator) parseRange(from, to string) (civilDate, civilDate, error) {
	fromDate, err := parseCivil(from)
	if err != nil {
		return civilDate{}, civilDate{}, apperrors.Validation("Invalid date range", map[string]any{"from": "must be a date in YYYY-MM-DD format"})
	}
	toDate, err := parseCivil(to)
	if err != nil {
		return civilDate{}, civilDate{}, apperrors.Validation("Invalid date range", map[string]any{"to": "must be a date in YYYY-MM-DD format"})
	}

	first := fromDate.at(0, time.UTC)
	last := toDate.at(0, time.UTC)
	if last.Before(first) {
		return civilDate{}, civilDate{}, apperrors.Validation("Invalid date range", map[string]any{"to": "must not be before from"})
	}
	if days := int(last.Sub(first).Hours()/24) + 1; days > g.cfg.MaxSlotRangeDays {
		return civilDate{}, civilDate{}, apperrors.Validation("Date range is too long", map[string]any{
			"days":     days,
			"max_days": g.cfg.MaxSlotRangeDays,
		})
	}
	return fromDate, toDate, nil
}

// days expands [from, to] with a daily recurrence anchored at local noon
// in the lawyer's zone. Midnight does not exist on some DST dates.
func days(from, to civilDate, loc *time.Location) ([]civilDate, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: from.at(12*60, loc),
		Until:   to.at(12*60, loc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build day recurrence: %w", err)
	}

	occurrences := rule.All()
	out := make([]civilDate, 0, len(occurrences))
	for _, t := range occurrences {
		out = append(out, civilOf(t.In(loc)))
	}
	return out, nil
}

// blocked loads every committed meeting that can touch window once padded
// by the buffers, and returns the padded, merged blocked list.
func (g *Generator) blocked(ctx context.Context, lawyerID string, p *plan, window interval.Interval) ([]interval.Interval, error) {
	before, after := p.availability.Policy.Buffers()
	from := window.Start.Add(-after)
	to := window.End.Add(before)

	clientMeetings, err := g.src.ClientMeetings.FindCommitted(ctx, lawyerID, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to load client meetings", err)
	}
	internalMeetings, err := g.src.InternalMeetings.FindCommittedForParticipant(ctx, lawyerID, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to load internal meetings", err)
	}

	committed := make([]interval.Interval, 0, len(clientMeetings)+len(internalMeetings))
	for _, m := range clientMeetings {
		committed = append(committed, m.Interval())
	}
	for _, m := range internalMeetings {
		committed = append(committed, m.Interval())
	}
	return committedWindow(p.availability.Policy, committed), nil
}

func (g *Generator) exceptions(ctx context.Context, lawyerID string, from, to civilDate) (map[string]*model.AvailabilityException, error) {
	list, err := g.src.Exceptions.ListRange(ctx, lawyerID, from.String(), to.String())
	if err != nil {
		return nil, apperrors.Internal("Failed to load availability exceptions", err)
	}
	byDate := make(map[string]*model.AvailabilityException, len(list))
	for _, e := range list {
		byDate[e.Date] = e
	}
	return byDate, nil
}

func (g *Generator) free(p *plan, exc *model.AvailabilityException, date civilDate, blocked []interval.Interval) ([]interval.Interval, error) {
	working, err := resolveDay(p.availability, exc, date, p.loc)
	if err != nil {
		return nil, apperrors.Internal("Stored availability is malformed", err)
	}
	var free []interval.Interval
	for _, w := range working {
		free = append(free, interval.Subtract(w, blocked)...)
	}
	return free, nil
}

// Generate lists bookable slots of durationMinutes between the local dates
// from and to, inclusive. Candidates start at each free interval's start
// and step by the duration; a candidate is kept when it fits the interval
// and its start lies inside the booking horizon.
func (g *Generator) Generate(ctx context.Context, lawyerID, from, to string, durationMinutes int) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, apperrors.Validation("Duration must be positive", map[string]any{"duration": durationMinutes})
	}
	fromDate, toDate, err := g.parseRange(from, to)
	if err != nil {
		return nil, err
	}

	p, err := g.load(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	policy := p.availability.Policy
	if !policy.HasDurations() {
		return []Slot{}, nil
	}
	if !policy.Allows(durationMinutes) {
		return nil, durationError(durationMinutes, policy)
	}

	dates, err := days(fromDate, toDate, p.loc)
	if err != nil {
		return nil, apperrors.Internal("Failed to expand date range", err)
	}
	slots := []Slot{}
	if len(dates) == 0 {
		return slots, nil
	}

	window := interval.New(dates[0].span(p.loc).Start, dates[len(dates)-1].span(p.loc).End)
	blocked, err := g.blocked(ctx, lawyerID, p, window)
	if err != nil {
		return nil, err
	}
	exceptions, err := g.exceptions(ctx, lawyerID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	for _, date := range dates {
		free, err := g.free(p, exceptions[date.String()], date, blocked)
		if err != nil {
			return nil, err
		}
		for _, f := range free {
			for start := f.Start; !start.Add(duration).After(f.End); start = start.Add(duration) {
				if p.horizon.Admits(start) {
					slots = append(slots, Slot{Start: start, End: start.Add(duration), Date: date.String()})
				}
			}
		}
	}

	g.cfg.Log.Debug("Slots generated",
		"lawyer_id", lawyerID,
		"from", from,
		"to", to,
		"duration", durationMinutes,
		"count", len(slots),
	)
	return slots, nil
}

// FreeIntervals returns the free intervals of one local date, after
// exceptions, committed meetings and buffers.
func (g *Generator) FreeIntervals(ctx context.Context, lawyerID, date string) ([]interval.Interval, error) {
	day, err := parseCivil(date)
	if err != nil {
		return nil, apperrors.Validation("Invalid date", map[string]any{"date": "must be a date in YYYY-MM-DD format"})
	}
	p, err := g.load(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	return g.freeOn(ctx, lawyerID, p, day)
}

func (g *Generator) freeOn(ctx context.Context, lawyerID string, p *plan, day civilDate) ([]interval.Interval, error) {
	blocked, err := g.blocked(ctx, lawyerID, p, day.span(p.loc))
	if err != nil {
		return nil, err
	}
	exceptions, err := g.exceptions(ctx, lawyerID, day, day)
	if err != nil {
		return nil, err
	}
	return g.free(p, exceptions[day.String()], day, blocked)
}

// Check re-derives availability from current state and reports whether
// [start, start+duration) can still be booked. It returns the lawyer's
// availability so callers can apply the policy. Run inside a transaction,
// every read joins it.
func (g *Generator) Check(ctx context.Context, lawyerID string, start time.Time, durationMinutes int) (*model.Availability, error) {
	if durationMinutes <= 0 {
		return nil, apperrors.Validation("Duration must be positive", map[string]any{"duration": durationMinutes})
	}
	p, err := g.load(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	policy := p.availability.Policy
	if !policy.HasDurations() {
		return nil, apperrors.SlotNoLongerAvailable()
	}
	if !policy.Allows(durationMinutes) {
		return nil, durationError(durationMinutes, policy)
	}
	if !p.horizon.Admits(start) {
		return nil, apperrors.SlotNoLongerAvailable()
	}

	candidate := interval.New(start, start.Add(time.Duration(durationMinutes)*time.Minute))
	free, err := g.freeOn(ctx, lawyerID, p, civilOf(start.In(p.loc)))
	if err != nil {
		return nil, err
	}
	for _, f := range free {
		if interval.Contains(f, candidate) {
			return p.availability, nil
		}
	}
	return nil, apperrors.SlotNoLongerAvailable()
}
