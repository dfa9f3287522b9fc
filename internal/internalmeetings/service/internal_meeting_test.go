package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docket/internal/events"
	"docket/internal/internalmeetings/validator"
	"docket/internal/testfixtures"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   InternalMeetingService
	store *testfixtures.Store
	pub   *testfixtures.Publisher
	clock *testfixtures.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testfixtures.Config()
	store := testfixtures.NewStore()
	pub := testfixtures.NewPublisher()
	clk := testfixtures.NewClock(testfixtures.ReferenceTime())
	svc := NewInternalMeetingService(store.InternalMeetings(), validator.NewInternalMeetingValidator(cfg.Log), pub, clk, cfg)
	return &fixture{svc: svc, store: store, pub: pub, clock: clk}
}

// newMeeting is scheduled at 10:00 on the reference day, two hours after the
// fixture clock.
func newMeeting() *model.InternalMeeting {
	return &model.InternalMeeting{
		Title:                   "  Case   review ",
		Agenda:                  "Discovery schedule",
		ScheduledAt:             time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		DurationMinutes:         60,
		VideoURL:                "http://Meet.Example.com/room-1/",
		CreatedBy:               "partner",
		Participants:            []string{"partner", " associate ", "partner", "paralegal"},
		JoinButtonMinutesBefore: 10,
		JoinButtonMinutesAfter:  15,
	}
}

func (f *fixture) create(t *testing.T, mutate func(m *model.InternalMeeting)) *model.InternalMeeting {
	t.Helper()
	m := newMeeting()
	if mutate != nil {
		mutate(m)
	}
	require.NoError(t, f.svc.Create(context.Background(), m))
	return m
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Case review", m.Title)
	assert.Equal(t, "https://meet.example.com/room-1", m.VideoURL)
	assert.Equal(t, []string{"partner", "associate", "paralegal"}, m.Participants)
	assert.Equal(t, model.Scheduled, m.Status)
	assert.Equal(t, model.CreatorOnly, m.SummaryPermission)

	stored, err := f.svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ScheduledAt.Add(time.Hour), stored.EndsAt)
	assert.Equal(t, []string{events.InternalMeetingCreated}, f.pub.Types())
}

func TestCreate_ResetsServerOwnedFields(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, func(m *model.InternalMeeting) {
		m.Status = model.Done
		m.Summary = &model.MeetingSummary{Text: "forged"}
		m.SummaryPermission = model.AllAttendees
	})
	assert.Equal(t, model.Scheduled, m.Status)
	assert.Nil(t, m.Summary)
	assert.Equal(t, model.AllAttendees, m.SummaryPermission)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *model.InternalMeeting)
	}{
		{"no participants", func(m *model.InternalMeeting) { m.Participants = []string{" ", ""} }},
		{"no title", func(m *model.InternalMeeting) { m.Title = "   " }},
		{"no location or video", func(m *model.InternalMeeting) { m.VideoURL = ""; m.Location = "" }},
		{"no schedule", func(m *model.InternalMeeting) { m.ScheduledAt = time.Time{} }},
		{"bad permission", func(m *model.InternalMeeting) { m.SummaryPermission = "everyone" }},
		{"negative window", func(m *model.InternalMeeting) { m.JoinButtonMinutesBefore = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			m := newMeeting()
			tt.mutate(m)
			err := f.svc.Create(context.Background(), m)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
			assert.Empty(t, f.pub.Events())
		})
	}
}

func TestCreate_LocationOnly(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, func(m *model.InternalMeeting) {
		m.VideoURL = ""
		m.Location = " Conference   room B "
	})
	assert.Equal(t, "Conference room B", m.Location)
}

func TestCreate_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("internal_meetings.Create", errors.New("primary stepped down"))
	err := f.svc.Create(context.Background(), newMeeting())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Empty(t, f.pub.Events())
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Get(context.Background(), " ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestButton(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)

	view, err := f.svc.Button(context.Background(), m.ID, "associate")
	require.NoError(t, err)
	assert.Equal(t, model.ButtonUpcoming, view.State)
	assert.False(t, view.CanEditSummary)
	assert.Equal(t, m.ScheduledAt.Add(-10*time.Minute), view.JoinOpensAt)
	assert.Equal(t, m.ScheduledAt.Add(75*time.Minute), view.JoinClosesAt)

	f.clock.Set(m.ScheduledAt.Add(-10 * time.Minute))
	view, err = f.svc.Button(context.Background(), m.ID, "partner")
	require.NoError(t, err)
	assert.Equal(t, model.ButtonJoin, view.State)
	assert.True(t, view.CanEditSummary)

	f.clock.Set(m.ScheduledAt.Add(2 * time.Hour))
	view, err = f.svc.Button(context.Background(), m.ID, "associate")
	require.NoError(t, err)
	assert.Equal(t, model.ButtonViewSummary, view.State)

	_, err = f.svc.Button(context.Background(), m.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)
	ctx := context.Background()

	_, err := f.svc.Join(ctx, m.ID, &model.JoinRequest{UserID: "associate"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition), "too early: %v", err)

	f.clock.Set(m.ScheduledAt.Add(-5 * time.Minute))
	_, err = f.svc.Join(ctx, m.ID, &model.JoinRequest{UserID: "outsider"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	joined, err := f.svc.Join(ctx, m.ID, &model.JoinRequest{UserID: " associate "})
	require.NoError(t, err)
	assert.Equal(t, model.InProgress, joined.Status)
	require.NotNil(t, joined.StartedAt)
	assert.Equal(t, m.ScheduledAt.Add(-5*time.Minute), *joined.StartedAt)

	again, err := f.svc.Join(ctx, m.ID, &model.JoinRequest{UserID: "partner"})
	require.NoError(t, err)
	assert.Equal(t, model.InProgress, again.Status)
	assert.Equal(t, []string{events.InternalMeetingCreated, events.InternalMeetingStatus}, f.pub.Types())

	_, err = f.svc.Join(ctx, m.ID, &model.JoinRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestJoin_AfterWindow(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)
	f.clock.Set(m.ScheduledAt.Add(3 * time.Hour))

	_, err := f.svc.Join(context.Background(), m.ID, &model.JoinRequest{UserID: "partner"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition))
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InProgress, started.Status)

	_, err = f.svc.Start(ctx, m.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition))

	done, err := f.svc.Complete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Done, done.Status)
	assert.NotNil(t, done.CompletedAt)

	_, err = f.svc.Cancel(ctx, m.ID, &model.InternalCancelRequest{Reason: "too late"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition))

	evts := f.pub.Events()
	require.Len(t, evts, 3)
	payload, ok := evts[2].Payload.(events.StatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, "in_progress", payload.From)
	assert.Equal(t, "completed", payload.To)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, m.ID, &model.InternalCancelRequest{Reason: "  "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	cancelled, err := f.svc.Cancel(ctx, m.ID, &model.InternalCancelRequest{Reason: "Client settled"})
	require.NoError(t, err)
	assert.Equal(t, model.Cancelled, cancelled.Status)
	assert.Equal(t, "Client settled", cancelled.CancellationReason)

	for _, op := range []func() (*model.InternalMeeting, error){
		func() (*model.InternalMeeting, error) { return f.svc.Start(ctx, m.ID) },
		func() (*model.InternalMeeting, error) { return f.svc.Complete(ctx, m.ID) },
		func() (*model.InternalMeeting, error) {
			return f.svc.Cancel(ctx, m.ID, &model.InternalCancelRequest{Reason: "again"})
		},
	} {
		_, err := op()
		assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition))
	}

	_, err = f.svc.WriteSummary(ctx, m.ID, &model.SummaryRequest{RequesterID: "partner", Text: "notes"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestWriteSummary_BeforeStart(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)

	updated, err := f.svc.WriteSummary(context.Background(), m.ID, &model.SummaryRequest{
		RequesterID: "partner",
		Text:        "Prep notes",
	})
	require.NoError(t, err)
	assert.Equal(t, model.Scheduled, updated.Status)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, "Prep notes", updated.Summary.Text)
	assert.Equal(t, []string{events.InternalMeetingCreated, events.InternalMeetingSummary}, f.pub.Types())
}

func TestWriteSummary_CompletesStartedMeeting(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)
	f.clock.Set(m.ScheduledAt.Add(90 * time.Minute))

	updated, err := f.svc.WriteSummary(context.Background(), m.ID, &model.SummaryRequest{
		RequesterID: "partner",
		Text:        "Agreed to file motion",
		Decisions:   []string{" File motion ", "", "File motion"},
		ActionItems: []string{"Draft brief"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.Done, updated.Status)
	assert.Equal(t, []string{"File motion"}, updated.Summary.Decisions)
	assert.Equal(t, "partner", updated.Summary.WrittenBy)
	assert.Equal(t, f.clock.Now(), updated.Summary.WrittenAt)
	assert.Equal(t, []string{
		events.InternalMeetingCreated,
		events.InternalMeetingStatus,
		events.InternalMeetingSummary,
	}, f.pub.Types())

	view, err := f.svc.Button(context.Background(), m.ID, "partner")
	require.NoError(t, err)
	assert.Equal(t, model.ButtonViewSummary, view.State)
}

func TestWriteSummary_OverwritesCompleted(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)
	ctx := context.Background()
	_, err := f.svc.Complete(ctx, m.ID)
	require.NoError(t, err)

	_, err = f.svc.WriteSummary(ctx, m.ID, &model.SummaryRequest{RequesterID: "partner", Text: "first"})
	require.NoError(t, err)
	updated, err := f.svc.WriteSummary(ctx, m.ID, &model.SummaryRequest{RequesterID: "partner", Text: "second"})
	require.NoError(t, err)
	assert.Equal(t, model.Done, updated.Status)
	assert.Equal(t, "second", updated.Summary.Text)
}

func TestWriteSummary_Permission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creatorOnly := f.create(t, nil)
	shared := f.create(t, func(m *model.InternalMeeting) { m.SummaryPermission = model.AllAttendees })

	_, err := f.svc.WriteSummary(ctx, creatorOnly.ID, &model.SummaryRequest{RequesterID: "associate", Text: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	updated, err := f.svc.WriteSummary(ctx, shared.ID, &model.SummaryRequest{RequesterID: "associate", Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "associate", updated.Summary.WrittenBy)

	_, err = f.svc.WriteSummary(ctx, shared.ID, &model.SummaryRequest{RequesterID: "associate"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestTransition_StoreFailure(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)
	f.store.FailNext("internal_meetings.Transition", errors.New("socket closed"))

	_, err := f.svc.Start(context.Background(), m.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.FailWith(errors.New("broker down"))
	m := f.create(t, nil)

	_, err := f.svc.Start(context.Background(), m.ID)
	assert.NoError(t, err)
}

func TestICS(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, nil)

	data, err := f.svc.ICS(context.Background(), m.ID)
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "SUMMARY:Case review")
	assert.Contains(t, body, "https://meet.example.com/room-1")
}
