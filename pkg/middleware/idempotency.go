package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// ClaimState is the outcome of claiming an idempotency key.
type ClaimState int

const (
	// ClaimAcquired means the caller owns the key and must Complete or Release it.
	ClaimAcquired ClaimState = iota
	// ClaimInFlight means another request with the key has not finished.
	ClaimInFlight
	// ClaimReplay means a stored response exists for the same request body.
	ClaimReplay
	// ClaimMismatch means the key was first used with a different body.
	ClaimMismatch
)

// IdempotencyStore tracks one record per scoped key. A record is pending
// from Claim until Complete stores a response or Release drops it.
type IdempotencyStore interface {
	Claim(key, fingerprint string) (ClaimState, *CachedResponse)
	Complete(key string, response *CachedResponse)
	Release(key string)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type idempotencyRecord struct {
	fingerprint string
	response    *CachedResponse
	claimedAt   time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	records  map[string]*idempotencyRecord
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		records: make(map[string]*idempotencyRecord),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.sweep(time.Hour)
	return s
}

func (s *InMemoryIdempotencyStore) expired(rec *idempotencyRecord, now time.Time) bool {
	return now.Sub(rec.claimedAt) > s.ttl
}

func (s *InMemoryIdempotencyStore) Claim(key, fingerprint string) (ClaimState, *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[key]
	if ok && s.expired(rec, now) {
		delete(s.records, key)
		ok = false
	}
	if !ok {
		s.records[key] = &idempotencyRecord{fingerprint: fingerprint, claimedAt: now}
		return ClaimAcquired, nil
	}

	switch {
	case rec.fingerprint != fingerprint:
		return ClaimMismatch, nil
	case rec.response == nil:
		return ClaimInFlight, nil
	}
	return ClaimReplay, rec.response
}

func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok {
		rec.response = response
	}
}

func (s *InMemoryIdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.response == nil {
		delete(s.records, key)
	}
}

func (s *InMemoryIdempotencyStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, rec := range s.records {
				if rec.response != nil && s.expired(rec, now) {
					delete(s.records, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency makes write requests carrying headerName safe to retry. Keys
// are scoped by method and path. The first 2xx response is replayed for a
// retry with the same body; a retry while the first is still running gets
// 409, and reusing a key with a different body gets 422. Non-2xx outcomes
// free the key so the client can try again.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scopedIdempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			fingerprint, err := fingerprintBody(r)
			if err != nil {
				writeIdempotencyError(w, http.StatusBadRequest, "Failed to read request body", "INVALID_INPUT")
				return
			}

			state, cached := store.Claim(key, fingerprint)
			switch state {
			case ClaimReplay:
				replay(w, cached)
				return
			case ClaimInFlight:
				writeIdempotencyError(w, http.StatusConflict, "A request with this idempotency key is still in progress", "CONFLICT")
				return
			case ClaimMismatch:
				writeIdempotencyError(w, http.StatusUnprocessableEntity, "Idempotency key was already used with a different request body", "VALIDATION_ERROR")
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			completed := false
			defer func() {
				if !completed {
					store.Release(key)
				}
			}()

			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Complete(key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       bytes.Clone(capture.body.Bytes()),
				})
				completed = true
			}
		})
	}
}

func scopedIdempotencyKey(r *http.Request, headerName string) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return ""
	}
	key := r.Header.Get(headerName)
	if key == "" {
		return ""
	}
	return r.Method + " " + r.URL.Path + " " + key
}

// fingerprintBody hashes the request body and restores it for the handler.
func fingerprintBody(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func writeIdempotencyError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"` + code + `"}`))
}
