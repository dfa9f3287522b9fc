package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/links/service"
	"docket/internal/links/validator"
	"docket/internal/testfixtures"
	apperrors "docket/pkg/errors"
	"docket/pkg/model"
	"docket/pkg/sealer"
)

func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	s, err := sealer.Random()
	require.NoError(t, err)
	store := testfixtures.NewStore()
	cfg := testfixtures.Config()
	svc := service.NewBookingLinkService(
		store.Links(),
		validator.NewBookingLinkValidator(cfg.Log),
		s,
		testfixtures.NewPublisher(),
		testfixtures.NewClock(testfixtures.ReferenceTime()),
		cfg,
	)
	router := httprouter.New()
	NewBookingLinkHandler(svc, cfg.Log).RegisterRoutes(router)
	return router
}

func TestBookingLinkHandler_Lifecycle(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/booking-links",
		strings.NewReader(`{"lawyer_id": "lawyer-1", "client_id": "client-1", "notification_channel": "email"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data model.BookingLink `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Data.Token)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/booking-links?lawyer_id=lawyer-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data       []model.BookingLink `json:"data"`
		TotalCount int64               `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.TotalCount)
	require.Len(t, list.Data, 1)
	assert.Equal(t, created.Data.ID, list.Data[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/booking-links/"+created.Data.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/booking-links/"+created.Data.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingLinkHandler_IssueErrors(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"lawyer_id":`, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"missing client", `{"lawyer_id": "lawyer-1", "notification_channel": "email"}`, http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"unknown channel", `{"lawyer_id": "lawyer-1", "client_id": "c", "notification_channel": "fax"}`, http.StatusUnprocessableEntity, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/booking-links", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}
