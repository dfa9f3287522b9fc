package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"docket/internal/events"
	linksservice "docket/internal/links/service"
	linksvalidator "docket/internal/links/validator"
	"docket/internal/reservations/lock"
	"docket/internal/reservations/validator"
	"docket/internal/slots"
	"docket/internal/testfixtures"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
	"docket/pkg/sealer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lawyer = "lawyer-1"

type harness struct {
	svc       ReservationService
	links     linksservice.BookingLinkService
	store     *testfixtures.Store
	clock     *testfixtures.Clock
	publisher *testfixtures.Publisher
}

type harnessOption func(*Deps)

func withLocker(l lock.Locker) harnessOption {
	return func(d *Deps) { d.Locker = l }
}

func newHarness(t *testing.T, a *model.Availability, opts ...harnessOption) *harness {
	t.Helper()
	s, err := sealer.Random()
	require.NoError(t, err)

	cfg := testfixtures.Config()
	store := testfixtures.NewStore()
	clk := testfixtures.NewClock(testfixtures.ReferenceTime())
	pub := testfixtures.NewPublisher()
	require.NoError(t, store.Availability().Upsert(context.Background(), a))

	links := linksservice.NewBookingLinkService(store.Links(), linksvalidator.NewBookingLinkValidator(cfg.Log), s, events.Noop(), clk, cfg)
	gen := slots.NewGenerator(slots.Sources{
		Templates:        store.Availability(),
		Exceptions:       store.Exceptions(),
		ClientMeetings:   store.ClientMeetings(),
		InternalMeetings: store.InternalMeetings(),
	}, clk, cfg)

	deps := Deps{
		Links:        links,
		LinkStore:    store.Links(),
		Meetings:     store.ClientMeetings(),
		Slots:        gen,
		Locker:       lock.NewLocal(cfg.ReservationLockWait),
		Transactions: store,
		Publisher:    pub,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &harness{
		svc:       NewReservationService(deps, validator.NewReservationValidator(cfg.Log), clk, cfg),
		links:     links,
		store:     store,
		clock:     clk,
		publisher: pub,
	}
}

func (h *harness) issue(t *testing.T) *model.BookingLink {
	t.Helper()
	link, err := h.links.Issue(context.Background(), &model.BookingLinkRequest{
		LawyerID:            lawyer,
		ClientID:            "client-1",
		CaseID:              "case-1",
		NotificationChannel: model.ChannelEmail,
	})
	require.NoError(t, err)
	return link
}

func (h *harness) linkUsed(t *testing.T, id string) bool {
	t.Helper()
	link, err := h.store.Links().FindByID(context.Background(), id)
	require.NoError(t, err)
	return link.IsUsed
}

func (h *harness) meetings(t *testing.T) []*model.ClientMeeting {
	t.Helper()
	list, err := h.store.ClientMeetings().FindCommitted(context.Background(), lawyer,
		testfixtures.ReferenceTime().AddDate(0, 0, -1), testfixtures.ReferenceTime().AddDate(0, 0, 90))
	require.NoError(t, err)
	return list
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func reservation(start time.Time, minutes int) *model.ReservationRequest {
	return &model.ReservationRequest{Start: start, DurationMinutes: minutes}
}

func TestReserve(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
	ctx := context.Background()
	link := h.issue(t)

	req := reservation(at(10, 0), 60)
	req.Notes = "  Contract   review  "
	m, err := h.svc.Reserve(ctx, link.Token, req)
	require.NoError(t, err)

	assert.Equal(t, model.Pending, m.Status)
	assert.Equal(t, lawyer, m.LawyerID)
	assert.Equal(t, "client-1", m.ClientID)
	assert.Equal(t, "case-1", m.CaseID)
	assert.Equal(t, link.ID, m.BookingLinkID)
	assert.Equal(t, model.InPerson, m.MeetingType)
	assert.Equal(t, "Contract review", m.Notes)
	assert.True(t, m.ScheduledAt.Equal(at(10, 0)))
	assert.True(t, h.linkUsed(t, link.ID))

	stored, err := h.store.Links().FindByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, stored.MeetingID)

	require.Equal(t, []string{events.ClientMeetingReserved}, h.publisher.Types())
	payload := h.publisher.Events()[0].Payload.(events.MeetingReservedPayload)
	assert.Equal(t, m.ID, payload.MeetingID)
	assert.Equal(t, "pending", payload.Status)

	page, err := h.svc.Page(ctx, h.issue(t).Token, PageQuery{From: "2025-03-10", DurationMinutes: 60})
	require.NoError(t, err)
	for _, s := range page.Slots {
		assert.False(t, s.Start.Equal(at(10, 0)), "the reserved slot is no longer offered")
	}
}

func TestReserve_AutoConfirm(t *testing.T) {
	a := testfixtures.WeekdayTemplate(lawyer, "UTC")
	a.Policy.AutoConfirm = true
	a.Policy.DefaultLocation = "Office 3B"
	h := newHarness(t, a)

	m, err := h.svc.Reserve(context.Background(), h.issue(t).Token, reservation(at(9, 0), 30))
	require.NoError(t, err)
	assert.Equal(t, model.Confirmed, m.Status)
	assert.Equal(t, "Office 3B", m.Location)

	req := reservation(at(9, 30), 30)
	req.MeetingType = "Remote"
	m, err = h.svc.Reserve(context.Background(), h.issue(t).Token, req)
	require.NoError(t, err)
	assert.Equal(t, model.Remote, m.MeetingType)
	assert.Empty(t, m.Location)
}

func TestReserve_LinkErrors(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
	ctx := context.Background()

	used := h.issue(t)
	_, err := h.svc.Reserve(ctx, used.Token, reservation(at(9, 0), 30))
	require.NoError(t, err)

	_, err = h.svc.Reserve(ctx, used.Token, reservation(at(11, 0), 30))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLinkAlreadyUsed), "a link books at most one meeting: %v", err)

	_, err = h.svc.Reserve(ctx, "garbage", reservation(at(11, 0), 30))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLinkInvalid))

	expired := h.issue(t)
	h.clock.Set(expired.ExpiresAt)
	_, err = h.svc.Reserve(ctx, expired.Token, reservation(at(11, 0).AddDate(0, 0, 7), 30))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLinkExpired))
	assert.False(t, h.linkUsed(t, expired.ID))
	assert.Len(t, h.meetings(t), 1)
}

func TestReserve_Validation(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
	ctx := context.Background()
	link := h.issue(t)

	tests := []struct {
		name string
		req  *model.ReservationRequest
		code string
	}{
		{"missing start", &model.ReservationRequest{DurationMinutes: 30}, apperrors.CodeValidation},
		{"zero duration", reservation(at(9, 0), 0), apperrors.CodeValidation},
		{"unknown meeting type", &model.ReservationRequest{Start: at(9, 0), DurationMinutes: 30, MeetingType: "zoom"}, apperrors.CodeValidation},
		{"disallowed duration", reservation(at(9, 0), 45), apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Reserve(ctx, link.Token, tt.req)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
	assert.False(t, h.linkUsed(t, link.ID))
}

func TestReserve_SlotNoLongerAvailable(t *testing.T) {
	a := testfixtures.WeekdayTemplate(lawyer, "UTC")
	a.Policy.BufferMinutes = 15
	h := newHarness(t, a)
	ctx := context.Background()

	_, err := h.svc.Reserve(ctx, h.issue(t).Token, reservation(at(10, 0), 60))
	require.NoError(t, err)

	tests := []struct {
		name  string
		start time.Time
	}{
		{"same slot", at(10, 0)},
		{"overlapping", at(10, 30)},
		{"inside trailing buffer", at(11, 0)},
		{"outside working hours", at(12, 0)},
		{"in the past", at(7, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := h.issue(t)
			_, err := h.svc.Reserve(ctx, link.Token, reservation(tt.start, 30))
			assert.True(t, apperrors.HasCode(err, apperrors.CodeSlotUnavailable), "got %v", err)
			assert.False(t, h.linkUsed(t, link.ID), "a rejected reservation leaves the link usable")
		})
	}
	assert.Len(t, h.meetings(t), 1)

	m, err := h.svc.Reserve(ctx, h.issue(t).Token, reservation(at(11, 15), 30))
	require.NoError(t, err, "the first start after the buffer is free")
	assert.True(t, m.ScheduledAt.Equal(at(11, 15)))
}

func TestReserve_RollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		op   string
	}{
		{"meeting insert fails", "client_meetings.Create"},
		{"commit fails", "tx.Commit"},
		{"link update fails", "links.MarkUsed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
			ctx := context.Background()
			link := h.issue(t)

			h.store.FailNext(tt.op, errors.New("injected"))
			_, err := h.svc.Reserve(ctx, link.Token, reservation(at(9, 0), 30))
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal), "got %v", err)
			assert.False(t, h.linkUsed(t, link.ID))
			assert.Empty(t, h.meetings(t))
			assert.Empty(t, h.publisher.Events())

			_, err = h.svc.Reserve(ctx, link.Token, reservation(at(9, 0), 30))
			require.NoError(t, err, "the link stays usable after a rolled back attempt")
		})
	}
}

func TestReserve_ConcurrentRequestsBookOnce(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
	ctx := context.Background()

	const clients = 8
	tokens := make([]string, clients)
	for i := range tokens {
		tokens[i] = h.issue(t).Token
	}

	var wg sync.WaitGroup
	errs := make([]error, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Reserve(ctx, tokens[i], reservation(at(14, 0), 60))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.CodeSlotUnavailable), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, h.meetings(t), 1)
}

func TestReserve_ConcurrentReplayUsesLinkOnce(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
	ctx := context.Background()
	link := h.issue(t)

	starts := []time.Time{at(9, 0), at(10, 0), at(11, 0), at(13, 0), at(14, 0), at(15, 0)}
	var wg sync.WaitGroup
	errs := make([]error, len(starts))
	for i, start := range starts {
		wg.Add(1)
		go func(i int, start time.Time) {
			defer wg.Done()
			_, errs[i] = h.svc.Reserve(ctx, link.Token, reservation(start, 60))
		}(i, start)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.CodeLinkAlreadyUsed), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, h.meetings(t), 1)
}

type failingLocker struct{ err error }

func (l failingLocker) Acquire(context.Context, string) (lock.Release, error) {
	return nil, l.err
}

func TestReserve_LockTimeout(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"),
		withLocker(failingLocker{err: fmt.Errorf("lock wait exceeded")}))
	link := h.issue(t)

	_, err := h.svc.Reserve(context.Background(), link.Token, reservation(at(9, 0), 30))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal), "got %v", err)
	assert.False(t, h.linkUsed(t, link.ID))
}

// slowLocker holds the caller until after link expiry before granting the lock.
type slowLocker struct {
	inner lock.Locker
	clock *testfixtures.Clock
	until time.Time
}

func (l *slowLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	release, err := l.inner.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	l.clock.Set(l.until)
	return release, nil
}

func TestReserve_LinkExpiresWhileWaitingForLock(t *testing.T) {
	locker := &slowLocker{inner: lock.NewLocal(time.Second)}
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"), withLocker(locker))
	link := h.issue(t)
	locker.clock = h.clock
	locker.until = link.ExpiresAt

	start := time.Date(2025, 3, 18, 10, 0, 0, 0, time.UTC)
	_, err := h.svc.Reserve(context.Background(), link.Token, reservation(start, 30))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLinkExpired), "got %v", err)
	assert.False(t, h.linkUsed(t, link.ID))
	assert.Empty(t, h.meetings(t))
	assert.Empty(t, h.publisher.Types())
}

func TestReserve_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
	h.publisher.FailWith(errors.New("broker unavailable"))
	link := h.issue(t)

	m, err := h.svc.Reserve(context.Background(), link.Token, reservation(at(9, 0), 30))
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.True(t, h.linkUsed(t, link.ID))
}

func TestPage(t *testing.T) {
	h := newHarness(t, testfixtures.WeekdayTemplate(lawyer, "UTC"))
	ctx := context.Background()
	link := h.issue(t)

	page, err := h.svc.Page(ctx, link.Token, PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, model.LinkIssued, page.State)
	assert.Empty(t, page.Slots, "no duration, no slots")

	page, err = h.svc.Page(ctx, link.Token, PageQuery{DurationMinutes: 60})
	require.NoError(t, err)
	assert.Len(t, page.Slots, 7, "defaults to today")

	page, err = h.svc.Page(ctx, link.Token, PageQuery{From: "2025-03-10", To: "2025-03-11", DurationMinutes: 60})
	require.NoError(t, err)
	assert.Len(t, page.Slots, 14)

	_, err = h.svc.Reserve(ctx, link.Token, reservation(at(9, 0), 60))
	require.NoError(t, err)
	page, err = h.svc.Page(ctx, link.Token, PageQuery{DurationMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, model.LinkUsed, page.State)
	assert.Empty(t, page.Slots)

	_, err = h.svc.Page(ctx, "garbage", PageQuery{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLinkInvalid))
}
