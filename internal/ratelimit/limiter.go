// Package ratelimit provides fixed-window rate limiting for HTTP requests.
// Each limiter instance owns an isolated key->counter map, so several policies
// (chat, search) can guard different endpoints without interfering. The package
// also includes HTTP middleware that sets rate limit response headers and
// short-circuits rejected requests with a 429.
package ratelimit

import "time"

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Check records a request for key and reports whether it is admitted.
	Check(key string) Result

	// Reset removes any state held for key.
	Reset(key string)

	// Status returns a snapshot of the live entry for key. Expired entries
	// are purged and reported as absent.
	Status(key string) (Entry, bool)

	// Cleanup removes all expired entries and returns how many were removed.
	Cleanup() int

	// Policy returns the configuration the limiter enforces.
	Policy() Policy
}

// Policy configures a limiter instance.
type Policy struct {
	Name        string        // Label used in logs and metrics
	Window      time.Duration // Length of each fixed window
	MaxRequests int           // Admitted requests per window
}

// Entry is the per-key counter state.
type Entry struct {
	Key           string
	Count         int
	WindowResetAt time.Time
}

// Result is the outcome of a Check.
type Result struct {
	Allowed   bool
	Limit     int       // Configured ceiling per window
	Remaining int       // Requests still admitted in this window
	ResetAt   time.Time // When the current window ends
}

// RetryAfter returns the whole number of seconds until ResetAt, rounded up.
// It never returns a negative value.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
