package testfixtures

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	availabilityerrors "docket/internal/availability/errors"
	clientmeetingserrors "docket/internal/clientmeetings/errors"
	internalmeetingserrors "docket/internal/internalmeetings/errors"
	linkserrors "docket/internal/links/errors"
	reservationserrors "docket/internal/reservations/errors"
	mongotx "docket/pkg/db/mongo"
	"docket/pkg/model"
)

// Store is an in-memory stand-in for every Mongo repository. Its
// ExecuteTransaction serializes transactions and restores a snapshot of all
// collections when the callback fails.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	availability     map[string]model.Availability
	exceptions       map[string]model.AvailabilityException
	links            map[string]model.BookingLink
	clientMeetings   map[string]model.ClientMeeting
	internalMeetings map[string]model.InternalMeeting
	locks            map[string]model.ReservationLock

	failures map[string]error
}

var _ mongotx.TransactionManager = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		availability:     make(map[string]model.Availability),
		exceptions:       make(map[string]model.AvailabilityException),
		links:            make(map[string]model.BookingLink),
		clientMeetings:   make(map[string]model.ClientMeeting),
		internalMeetings: make(map[string]model.InternalMeeting),
		locks:            make(map[string]model.ReservationLock),
		failures:         make(map[string]error),
	}
}

// FailNext makes the next call of op return err. Ops are named
// "<collection>.<Method>", e.g. "client_meetings.Create".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// fail must be called with s.mu held.
func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

type snapshot struct {
	availability     map[string]model.Availability
	exceptions       map[string]model.AvailabilityException
	links            map[string]model.BookingLink
	clientMeetings   map[string]model.ClientMeeting
	internalMeetings map[string]model.InternalMeeting
}

func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := snapshot{
		availability:     maps.Clone(s.availability),
		exceptions:       maps.Clone(s.exceptions),
		links:            maps.Clone(s.links),
		clientMeetings:   maps.Clone(s.clientMeetings),
		internalMeetings: maps.Clone(s.internalMeetings),
	}
	err := s.fail("tx.Commit")
	s.mu.Unlock()

	if fnErr := fn(ctx); fnErr != nil {
		err = fnErr
	}
	if err != nil {
		s.mu.Lock()
		s.availability = snap.availability
		s.exceptions = snap.exceptions
		s.links = snap.links
		s.clientMeetings = snap.clientMeetings
		s.internalMeetings = snap.internalMeetings
		s.mu.Unlock()
		return err
	}
	return nil
}

// Availability

type AvailabilityStore struct{ s *Store }

func (s *Store) Availability() *AvailabilityStore { return &AvailabilityStore{s} }

func (r *AvailabilityStore) Get(ctx context.Context, lawyerID string) (*model.Availability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("availability.Get"); err != nil {
		return nil, err
	}
	a, ok := r.s.availability[lawyerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrNotFound, lawyerID)
	}
	a.Weekly = maps.Clone(a.Weekly)
	return &a, nil
}

func (r *AvailabilityStore) Upsert(ctx context.Context, a *model.Availability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("availability.Upsert"); err != nil {
		return err
	}
	stored := *a
	stored.Weekly = maps.Clone(a.Weekly)
	r.s.availability[a.LawyerID] = stored
	return nil
}

// Exceptions

type ExceptionStore struct{ s *Store }

func (s *Store) Exceptions() *ExceptionStore { return &ExceptionStore{s} }

func exceptionKey(lawyerID, date string) string {
	return lawyerID + "|" + date
}

func (r *ExceptionStore) Upsert(ctx context.Context, e *model.AvailabilityException) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("exceptions.Upsert"); err != nil {
		return err
	}
	key := exceptionKey(e.LawyerID, e.Date)
	stored := *e
	stored.CustomSlots = slices.Clone(e.CustomSlots)
	if existing, ok := r.s.exceptions[key]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	r.s.exceptions[key] = stored
	return nil
}

func (r *ExceptionStore) Get(ctx context.Context, lawyerID, date string) (*model.AvailabilityException, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.exceptions[exceptionKey(lawyerID, date)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", availabilityerrors.ErrExceptionNotFound, lawyerID, date)
	}
	return &e, nil
}

func (r *ExceptionStore) ListRange(ctx context.Context, lawyerID, from, to string) ([]*model.AvailabilityException, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("exceptions.ListRange"); err != nil {
		return nil, err
	}
	out := []*model.AvailabilityException{}
	for _, e := range r.s.exceptions {
		if e.LawyerID == lawyerID && e.Date >= from && e.Date <= to {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *ExceptionStore) Delete(ctx context.Context, lawyerID, date string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := exceptionKey(lawyerID, date)
	if _, ok := r.s.exceptions[key]; !ok {
		return fmt.Errorf("%w: %s %s", availabilityerrors.ErrExceptionNotFound, lawyerID, date)
	}
	delete(r.s.exceptions, key)
	return nil
}

// Booking links

type LinkStore struct{ s *Store }

func (s *Store) Links() *LinkStore { return &LinkStore{s} }

func (r *LinkStore) Create(ctx context.Context, link *model.BookingLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("links.Create"); err != nil {
		return err
	}
	if _, ok := r.s.links[link.ID]; ok {
		return fmt.Errorf("duplicate booking link id %s", link.ID)
	}
	r.s.links[link.ID] = *link
	return nil
}

func (r *LinkStore) FindByID(ctx context.Context, id string) (*model.BookingLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("links.FindByID"); err != nil {
		return nil, err
	}
	link, ok := r.s.links[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", linkserrors.ErrNotFound, id)
	}
	return &link, nil
}

func (r *LinkStore) matching(lawyerID string) []*model.BookingLink {
	out := []*model.BookingLink{}
	for _, link := range r.s.links {
		if lawyerID == "" || link.LawyerID == lawyerID {
			link := link
			out = append(out, &link)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *LinkStore) FindAll(ctx context.Context, lawyerID string, limit int, offset int64) ([]*model.BookingLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.matching(lawyerID)
	if offset >= int64(len(all)) {
		return []*model.BookingLink{}, nil
	}
	end := min(int(offset)+limit, len(all))
	return all[offset:end], nil
}

func (r *LinkStore) Count(ctx context.Context, lawyerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.matching(lawyerID))), nil
}

func (r *LinkStore) MarkUsed(ctx context.Context, id, meetingID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("links.MarkUsed"); err != nil {
		return err
	}
	link, ok := r.s.links[id]
	if !ok {
		return fmt.Errorf("%w: %s", linkserrors.ErrNotFound, id)
	}
	if link.IsUsed {
		return fmt.Errorf("%w: %s", linkserrors.ErrAlreadyUsed, id)
	}
	if !at.Before(link.ExpiresAt) {
		return fmt.Errorf("%w: %s", linkserrors.ErrExpired, id)
	}
	link.IsUsed = true
	link.UsedAt = &at
	link.MeetingID = meetingID
	r.s.links[id] = link
	return nil
}

func (r *LinkStore) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.links[id]; !ok {
		return fmt.Errorf("%w: %s", linkserrors.ErrNotFound, id)
	}
	delete(r.s.links, id)
	return nil
}

// Client meetings

type ClientMeetingStore struct{ s *Store }

func (s *Store) ClientMeetings() *ClientMeetingStore { return &ClientMeetingStore{s} }

func (r *ClientMeetingStore) Create(ctx context.Context, m *model.ClientMeeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("client_meetings.Create"); err != nil {
		return err
	}
	m.EndsAt = m.Interval().End
	m.UpdatedAt = m.CreatedAt
	r.s.clientMeetings[m.ID] = *m
	return nil
}

func (r *ClientMeetingStore) FindByID(ctx context.Context, id string) (*model.ClientMeeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.clientMeetings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", clientmeetingserrors.ErrNotFound, id)
	}
	return &m, nil
}

func (r *ClientMeetingStore) FindCommitted(ctx context.Context, lawyerID string, from, to time.Time) ([]*model.ClientMeeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("client_meetings.FindCommitted"); err != nil {
		return nil, err
	}
	out := []*model.ClientMeeting{}
	for _, m := range r.s.clientMeetings {
		if m.LawyerID != lawyerID || m.Status.IsCancelled() {
			continue
		}
		if m.ScheduledAt.Before(to) && m.EndsAt.After(from) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *ClientMeetingStore) Transition(ctx context.Context, id string, change model.ClientStatusChange) (*model.ClientMeeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("client_meetings.Transition"); err != nil {
		return nil, err
	}
	m, ok := r.s.clientMeetings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", clientmeetingserrors.ErrNotFound, id)
	}
	if !slices.Contains(change.From, m.Status) {
		return nil, fmt.Errorf("%w: %s", clientmeetingserrors.ErrStatusConflict, id)
	}
	m.Status = change.To
	m.UpdatedAt = change.At
	if change.Reason != "" {
		m.CancellationReason = change.Reason
	}
	if change.OutcomeNote != "" {
		m.OutcomeNote = change.OutcomeNote
	}
	r.s.clientMeetings[id] = m
	return &m, nil
}

// Internal meetings

type InternalMeetingStore struct{ s *Store }

func (s *Store) InternalMeetings() *InternalMeetingStore { return &InternalMeetingStore{s} }

func (r *InternalMeetingStore) Create(ctx context.Context, m *model.InternalMeeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("internal_meetings.Create"); err != nil {
		return err
	}
	m.EndsAt = m.Interval().End
	m.UpdatedAt = m.CreatedAt
	stored := *m
	stored.Participants = slices.Clone(m.Participants)
	r.s.internalMeetings[m.ID] = stored
	return nil
}

func (r *InternalMeetingStore) FindByID(ctx context.Context, id string) (*model.InternalMeeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.internalMeetings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", internalmeetingserrors.ErrNotFound, id)
	}
	return &m, nil
}

func (r *InternalMeetingStore) FindCommittedForParticipant(ctx context.Context, userID string, from, to time.Time) ([]*model.InternalMeeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.InternalMeeting{}
	for _, m := range r.s.internalMeetings {
		if m.Status == model.Cancelled || !m.IsParticipant(userID) {
			continue
		}
		if m.ScheduledAt.Before(to) && m.EndsAt.After(from) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *InternalMeetingStore) Transition(ctx context.Context, id string, change model.InternalStatusChange) (*model.InternalMeeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("internal_meetings.Transition"); err != nil {
		return nil, err
	}
	m, ok := r.s.internalMeetings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", internalmeetingserrors.ErrNotFound, id)
	}
	if !slices.Contains(change.From, m.Status) {
		return nil, fmt.Errorf("%w: %s", internalmeetingserrors.ErrStatusConflict, id)
	}
	m.Status = change.To
	m.UpdatedAt = change.At
	if change.Reason != "" {
		m.CancellationReason = change.Reason
	}
	if change.Summary != nil {
		summary := *change.Summary
		m.Summary = &summary
	}
	if change.StartedAt != nil {
		started := *change.StartedAt
		m.StartedAt = &started
	}
	if change.To == model.Done {
		at := change.At
		m.CompletedAt = &at
	}
	r.s.internalMeetings[id] = m
	return &m, nil
}

// Reservation locks

type LockStore struct{ s *Store }

func (s *Store) Locks() *LockStore { return &LockStore{s} }

func (r *LockStore) Create(ctx context.Context, lock *model.ReservationLock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("locks.Create"); err != nil {
		return err
	}
	if _, ok := r.s.locks[lock.ID]; ok {
		return fmt.Errorf("%w: %s", reservationserrors.ErrLockHeld, lock.ID)
	}
	r.s.locks[lock.ID] = *lock
	return nil
}

func (r *LockStore) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lock, ok := r.s.locks[id]
	if !ok || lock.ExpiresAt.After(now) {
		return false, nil
	}
	delete(r.s.locks, id)
	return true, nil
}

func (r *LockStore) Delete(ctx context.Context, id, owner string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if lock, ok := r.s.locks[id]; ok && lock.Owner == owner {
		delete(r.s.locks, id)
	}
	return nil
}

// Held reports whether a lock document exists for id.
func (r *LockStore) Held(id string) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.locks[id]
	return ok
}
