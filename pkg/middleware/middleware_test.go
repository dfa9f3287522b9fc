package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"docket/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Output: io.Discard, Service: "test"})
}

func TestRateLimitOnlyCountsMatchingPaths(t *testing.T) {
	limiter := NewKeyRateLimiter(2, time.Minute, ClientIPExtractor, testLogger())
	defer limiter.Stop()

	h := RateLimit(limiter, "/api/v1/book/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/api/v1/book/tok", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("/api/v1/book/tok", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/v1/book/tok", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("/api/v1/book/tok", "10.0.0.2"), "other clients have their own window")
	assert.Equal(t, http.StatusOK, do("/api/v1/booking-links", "10.0.0.1"), "staff routes are not limited")
}

func TestRateLimiterWindowSlides(t *testing.T) {
	limiter := NewKeyRateLimiter(1, time.Minute, nil, testLogger())
	defer limiter.Stop()

	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	now = now.Add(61 * time.Second)
	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow(""), "empty key bypasses")
}

func TestClientIPExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIPExtractor(req))

	req.Header.Set("X-Forwarded-For", " 198.51.100.7 , 10.0.0.1")
	assert.Equal(t, "198.51.100.7", ClientIPExtractor(req))
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte{byte('0' + n)})
	}))

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Idempotency-Key", "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("/api/v1/booking-links")
	second := send("/api/v1/booking-links")
	other := send("/api/v1/internal-meetings")

	assert.Equal(t, "1", first.Body.String())
	assert.Equal(t, "1", second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "2", other.Body.String(), "keys are scoped per path")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyDoesNotCacheFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "Idempotency-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/book/tok", nil)
		req.Header.Set("Idempotency-Key", "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyRejectsBodyMismatch(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var bodies []string
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/book/tok", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "k")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, send(`{"duration_minutes":30}`).Code)
	assert.Equal(t, http.StatusCreated, send(`{"duration_minutes":30}`).Code)
	mismatch := send(`{"duration_minutes":60}`)
	assert.Equal(t, http.StatusUnprocessableEntity, mismatch.Code)
	assert.Contains(t, mismatch.Body.String(), "VALIDATION_ERROR")
	assert.Equal(t, []string{`{"duration_minutes":30}`}, bodies, "the handler sees the body once")
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	entered := make(chan struct{})
	finish := make(chan struct{})
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-finish
		w.WriteHeader(http.StatusCreated)
	}))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/book/tok", nil)
		req.Header.Set("Idempotency-Key", "k")
		return req
	}

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		h.ServeHTTP(first, newReq())
		close(done)
	}()
	<-entered

	dup := httptest.NewRecorder()
	h.ServeHTTP(dup, newReq())
	assert.Equal(t, http.StatusConflict, dup.Code)

	close(finish)
	<-done
	assert.Equal(t, http.StatusCreated, first.Code)

	replayed := httptest.NewRecorder()
	h.ServeHTTP(replayed, newReq())
	assert.Equal(t, http.StatusCreated, replayed.Code)
	assert.Equal(t, "true", replayed.Header().Get("Idempotent-Replayed"))
}

func TestIdempotencyStoreExpiresRecords(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	state, _ := store.Claim("k", "a")
	require.Equal(t, ClaimAcquired, state)
	store.Complete("k", &CachedResponse{StatusCode: http.StatusCreated})

	state, cached := store.Claim("k", "a")
	require.Equal(t, ClaimReplay, state)
	assert.Equal(t, http.StatusCreated, cached.StatusCode)

	now = now.Add(2 * time.Minute)
	state, _ = store.Claim("k", "b")
	assert.Equal(t, ClaimAcquired, state, "an expired record frees its key")

	store.Release("k")
	state, _ = store.Claim("k", "a")
	assert.Equal(t, ClaimAcquired, state)
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{"json body", `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"text body", `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"bodyless transition", ``, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/client-meetings/m1/confirm", body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("0123")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryAndRequestID(t *testing.T) {
	log := testLogger()
	var seen string
	h := RequestLogging(log)(Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}
