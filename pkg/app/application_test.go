package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"docket/internal/health"
	"docket/internal/testfixtures"
)

type okPinger struct{}

func (okPinger) Ping(context.Context, *readpref.ReadPref) error { return nil }

type echoHandler struct{}

func (echoHandler) RegisterRoutes(router *httprouter.Router) {
	ok := func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) { w.WriteHeader(http.StatusOK) }
	router.GET("/api/v1/book/:token", ok)
	router.GET("/api/v1/booking-links", ok)
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func newTestApplication(t *testing.T) (*Application, *countingCloser) {
	t.Helper()
	cfg := testfixtures.Config()
	cfg.Port = "8080"
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	cfg.RequestTimeout = time.Second
	cfg.IdempotencyTTL = time.Minute
	cfg.MaxRequestSize = 1 << 20
	cfg.ShutdownTimeout = time.Second

	a := NewApplication()
	a.SetApp(cfg, health.NewHandler(okPinger{}, cfg.Log), []string{"/api/v1/book/"}, echoHandler{})
	closer := &countingCloser{}
	a.OnShutdown(closer)
	t.Cleanup(a.Stop)
	return a, closer
}

func get(h http.Handler, path string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestApplicationRoutes(t *testing.T) {
	a, _ := newTestApplication(t)
	h := a.Handler()

	assert.Equal(t, http.StatusOK, get(h, "/health"))
	assert.Equal(t, http.StatusOK, get(h, "/ready"))
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/booking-links"))
	assert.Equal(t, http.StatusNotFound, get(h, "/api/v1/unknown"))
}

func TestApplicationRateLimitsBookingRoutes(t *testing.T) {
	a, _ := newTestApplication(t)
	h := a.Handler()

	assert.Equal(t, http.StatusOK, get(h, "/api/v1/book/abc"))
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/book/abc"))
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/api/v1/book/abc"))

	for range 5 {
		assert.Equal(t, http.StatusOK, get(h, "/api/v1/booking-links"))
	}
}

func TestApplicationStopClosesResources(t *testing.T) {
	a, closer := newTestApplication(t)
	a.Stop()
	assert.Equal(t, 1, closer.closed)
}
