package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tripplanner/internal/models"
)

// DefaultKey is used when a guard has no key function.
const DefaultKey = "default"

// UnknownKey is the bucket shared by callers with no identifying headers.
const UnknownKey = "unknown"

// Response header names.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderResetTime = "X-RateLimit-Reset-Time"
)

// HeaderGetter is the slice of a request the key functions need.
// http.Header satisfies it.
type HeaderGetter interface {
	Get(key string) string
}

// KeyFunc maps request headers to a caller identity.
type KeyFunc func(h HeaderGetter) string

// ClientKey returns the first X-Forwarded-For address, else X-Real-IP, else
// UnknownKey.
func ClientKey(h HeaderGetter) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(h.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return UnknownKey
}

// GuardOption configures Middleware.
type GuardOption func(*guard)

type guard struct {
	now func() time.Time
}

// WithGuardClock overrides the clock used for the retry-after hint.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *guard) {
		if now != nil {
			g.now = now
		}
	}
}

// Middleware returns HTTP middleware that enforces limiter for every request.
// The caller key comes from keyFunc applied to the request headers; a nil
// keyFunc puts every request in the DefaultKey bucket. Rate limit headers are
// set on every response, admitted or not.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...GuardOption) func(http.Handler) http.Handler {
	g := &guard{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := DefaultKey
			if keyFunc != nil {
				key = keyFunc(r.Header)
			}

			result := limiter.Check(key)
			writeHeaders(w.Header(), result)

			if !result.Allowed {
				retryAfter := result.RetryAfter(g.now())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				resp := models.NewRateLimitErrorResponse(retryAfter)
				if err := json.NewEncoder(w).Encode(resp); err != nil {
					slog.Error("Failed to encode rate limit response", "error", err)
				}

				slog.Warn("Rate limit exceeded",
					"policy", limiter.Policy().Name,
					"key", key,
					"limit", result.Limit,
					"retry_after", retryAfter,
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeHeaders(h http.Header, result Result) {
	h.Set(HeaderLimit, strconv.Itoa(result.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(result.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(result.ResetAt.UnixMilli(), 10))
	h.Set(HeaderResetTime, result.ResetAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}
