package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func newRequest(headers map[string]string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestMiddleware_AllowedRequest(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(time.Minute, 10, clock)

	handler := Middleware(limiter, ClientKey, WithGuardClock(clock.Now))(http.HandlerFunc(okHandler))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(map[string]string{"X-Forwarded-For": "203.0.113.7"}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "10", rr.Header().Get(HeaderLimit))
	assert.Equal(t, "9", rr.Header().Get(HeaderRemaining))

	resetAt := clock.Now().Add(time.Minute)
	assert.Equal(t, strconv.FormatInt(resetAt.UnixMilli(), 10), rr.Header().Get(HeaderReset))
	assert.Equal(t, "2025-06-01T12:01:00.000Z", rr.Header().Get(HeaderResetTime))
	assert.Empty(t, rr.Header().Get("Retry-After"))
}

func TestMiddleware_DeniedRequest(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(time.Minute, 2, clock)

	reached := 0
	handler := Middleware(limiter, ClientKey, WithGuardClock(clock.Now))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusOK)
	}))

	headers := map[string]string{"X-Real-IP": "198.51.100.1"}
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newRequest(headers))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	clock.Advance(15500 * time.Millisecond)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(headers))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 2, reached, "rejected request must not reach the handler")
	assert.Equal(t, "2", rr.Header().Get(HeaderLimit))
	assert.Equal(t, "0", rr.Header().Get(HeaderRemaining))
	assert.NotEmpty(t, rr.Header().Get(HeaderReset))
	assert.NotEmpty(t, rr.Header().Get(HeaderResetTime))
	assert.Equal(t, "45", rr.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, float64(45), body["retryAfter"])
}

func TestMiddleware_NilKeyFuncUsesDefaultBucket(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(time.Minute, 1, clock)

	handler := Middleware(limiter, nil, WithGuardClock(clock.Now))(http.HandlerFunc(okHandler))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(map[string]string{"X-Forwarded-For": "10.0.0.1"}))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(map[string]string{"X-Forwarded-For": "10.0.0.2"}))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	_, ok := limiter.Status(DefaultKey)
	assert.True(t, ok)
}

func TestMiddleware_SeparateCallers(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(time.Minute, 1, clock)

	handler := Middleware(limiter, ClientKey, WithGuardClock(clock.Now))(http.HandlerFunc(okHandler))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(map[string]string{"X-Forwarded-For": "10.0.0.1"}))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(map[string]string{"X-Forwarded-For": "10.0.0.2"}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded for single",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.50"},
			want:    "203.0.113.50",
		},
		{
			name:    "forwarded for chain uses first",
			headers: map[string]string{"X-Forwarded-For": " 203.0.113.50 , 70.41.3.18"},
			want:    "203.0.113.50",
		},
		{
			name:    "forwarded for wins over real ip",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.50", "X-Real-IP": "198.51.100.9"},
			want:    "203.0.113.50",
		},
		{
			name:    "real ip",
			headers: map[string]string{"X-Real-IP": "198.51.100.9"},
			want:    "198.51.100.9",
		},
		{
			name:    "empty forwarded entry falls through",
			headers: map[string]string{"X-Forwarded-For": " , 1.1.1.1", "X-Real-IP": "198.51.100.9"},
			want:    "198.51.100.9",
		},
		{
			name:    "no headers",
			headers: map[string]string{},
			want:    UnknownKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientKey(h))
		})
	}
}
