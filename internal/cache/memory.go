package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 10 * time.Minute

// MemoryCache is an in-process TTL cache bounded by entry count. When full,
// the least recently used entry is evicted. Reads never extend an entry's
// lifetime.
type MemoryCache struct {
	items         *ttlcache.Cache[string, []byte]
	sweepInterval time.Duration

	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
	done     chan struct{}
	stopped  chan struct{}
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithSweepInterval sets how often expired entries are removed.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *MemoryCache) {
		if d > 0 {
			c.sweepInterval = d
		}
	}
}

// NewMemoryCache creates a cache holding at most maxSize entries.
// A non-positive maxSize means unbounded.
func NewMemoryCache(maxSize int, opts ...MemoryOption) *MemoryCache {
	ttlOpts := []ttlcache.Option[string, []byte]{
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if maxSize > 0 {
		ttlOpts = append(ttlOpts, ttlcache.WithCapacity[string, []byte](uint64(maxSize)))
	}

	c := &MemoryCache{
		items:         ttlcache.New[string, []byte](ttlOpts...),
		sweepInterval: DefaultSweepInterval,
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := c.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	return append([]byte(nil), item.Value()...), true, nil
}

// Set stores value for ttl. A non-positive ttl is ignored.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}

// Purge removes expired entries and returns how many were removed.
func (c *MemoryCache) Purge() int {
	before := c.items.Len()
	c.items.DeleteExpired()
	if removed := before - c.items.Len(); removed > 0 {
		return removed
	}
	return 0
}

// Start launches the background sweep. It has no effect after the first call.
func (c *MemoryCache) Start() {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.started {
		return
	}
	c.started = true
	go c.sweep()
}

func (c *MemoryCache) sweep() {
	defer close(c.stopped)

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if n := c.Purge(); n > 0 {
				slog.Debug("Cache entries swept", "removed", n)
			}
		}
	}
}

// Close stops the background sweep and drops all entries.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.done)
		c.startMu.Lock()
		started := c.started
		c.started = true
		c.startMu.Unlock()
		if started {
			<-c.stopped
		}
	})

	c.items.DeleteAll()
	return nil
}
