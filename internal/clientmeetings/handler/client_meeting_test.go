package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/calendar"
	"docket/internal/clientmeetings/service"
	"docket/internal/testfixtures"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
)

func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	store := testfixtures.NewStore()
	require.NoError(t, store.ClientMeetings().Create(context.Background(), &model.ClientMeeting{
		ID:              "m1",
		LawyerID:        "lawyer-1",
		ClientID:        "client-1",
		ScheduledAt:     time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Status:          model.Pending,
	}))
	cfg := testfixtures.Config()
	svc := service.NewClientMeetingService(store.ClientMeetings(), testfixtures.NewPublisher(), testfixtures.NewClock(testfixtures.ReferenceTime()), cfg)
	router := httprouter.New()
	NewClientMeetingHandler(svc, cfg.Log).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func status(t *testing.T, rec *httptest.ResponseRecorder) model.ClientMeetingStatus {
	t.Helper()
	var body struct {
		Data model.ClientMeeting `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data.Status
}

func TestClientMeetingHandler_Flow(t *testing.T) {
	router := newRouter(t)

	rec := serve(router, http.MethodGet, "/api/v1/client-meetings/m1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.Pending, status(t, rec))

	rec = serve(router, http.MethodPost, "/api/v1/client-meetings/m1/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.Confirmed, status(t, rec))

	rec = serve(router, http.MethodPost, "/api/v1/client-meetings/m1/complete", `{"outcome_note": "Retainer signed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.Completed, status(t, rec))

	rec = serve(router, http.MethodPost, "/api/v1/client-meetings/m1/cancel", `{"cancelled_by": "client", "reason": "late"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var failure struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	assert.Equal(t, apperrors.CodeIllegalTransition, failure.Code)
}

func TestClientMeetingHandler_ICS(t *testing.T) {
	router := newRouter(t)

	rec := serve(router, http.MethodGet, "/api/v1/client-meetings/m1/ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calendar.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VEVENT")

	rec = serve(router, http.MethodGet, "/api/v1/client-meetings/unknown/ics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientMeetingHandler_CancelValidation(t *testing.T) {
	router := newRouter(t)

	rec := serve(router, http.MethodPost, "/api/v1/client-meetings/m1/cancel", `{"cancelled_by": "client"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(router, http.MethodPost, "/api/v1/client-meetings/m1/no-show", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.NoShow, status(t, rec))
}
