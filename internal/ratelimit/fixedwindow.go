package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often the background sweep runs when no
// interval is configured.
const DefaultCleanupInterval = 5 * time.Minute

// FixedWindowLimiter is an in-memory fixed-window rate limiter. A key's window
// starts on its first request and ends Window later; the reset time does not
// slide on later requests. Expired entries are treated as absent on access and
// are removed in bulk by a background sweep between Start and Stop.
type FixedWindowLimiter struct {
	policy          Policy
	cleanupInterval time.Duration
	now             func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry

	lifecycle sync.Mutex
	done      chan struct{}
	stopped   chan struct{}
	closed    bool
}

// Option configures a FixedWindowLimiter.
type Option func(*FixedWindowLimiter)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindowLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithCleanupInterval sets the period of the background sweep.
func WithCleanupInterval(d time.Duration) Option {
	return func(l *FixedWindowLimiter) {
		if d > 0 {
			l.cleanupInterval = d
		}
	}
}

// NewFixedWindow creates a limiter for the given policy. The background sweep
// is not running until Start is called.
func NewFixedWindow(policy Policy, opts ...Option) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		policy:          policy,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		entries:         make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the limiter's configuration.
func (l *FixedWindowLimiter) Policy() Policy {
	return l.policy
}

// Check records a request for key and reports whether it is admitted.
// Rejected requests do not change the stored count.
func (l *FixedWindowLimiter) Check(key string) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.entries[key]
	if !exists || now.After(e.WindowResetAt) {
		e = &Entry{
			Key:           key,
			Count:         1,
			WindowResetAt: now.Add(l.policy.Window),
		}
		l.entries[key] = e
		return Result{
			Allowed:   true,
			Limit:     l.policy.MaxRequests,
			Remaining: l.policy.MaxRequests - 1,
			ResetAt:   e.WindowResetAt,
		}
	}

	if e.Count >= l.policy.MaxRequests {
		return Result{
			Allowed:   false,
			Limit:     l.policy.MaxRequests,
			Remaining: 0,
			ResetAt:   e.WindowResetAt,
		}
	}

	e.Count++
	return Result{
		Allowed:   true,
		Limit:     l.policy.MaxRequests,
		Remaining: l.policy.MaxRequests - e.Count,
		ResetAt:   e.WindowResetAt,
	}
}

// Reset deletes the entry for key, if any.
func (l *FixedWindowLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Status returns a copy of the live entry for key. An expired entry is
// deleted and reported as absent.
func (l *FixedWindowLimiter) Status(key string) (Entry, bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.entries[key]
	if !exists {
		return Entry{}, false
	}
	if now.After(e.WindowResetAt) {
		delete(l.entries, key)
		return Entry{}, false
	}
	return *e, true
}

// Cleanup removes every expired entry and returns the number removed.
func (l *FixedWindowLimiter) Cleanup() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if now.After(e.WindowResetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys, including expired ones not yet swept.
func (l *FixedWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Start launches the background sweep. Calling Start on a running or stopped
// limiter has no effect.
func (l *FixedWindowLimiter) Start() {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()
	if l.done != nil || l.closed {
		return
	}
	l.done = make(chan struct{})
	l.stopped = make(chan struct{})
	go l.sweep(l.done, l.stopped)
}

// Stop halts the background sweep and waits for it to exit. It is safe to
// call more than once.
func (l *FixedWindowLimiter) Stop() {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.done != nil {
		close(l.done)
		<-l.stopped
	}
}

func (l *FixedWindowLimiter) sweep(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := l.Cleanup(); n > 0 {
				slog.Debug("Rate limit entries swept", "policy", l.policy.Name, "removed", n)
			}
		}
	}
}
