// Package cache stores serialized search results for a limited time.
// Backends are an in-process ttlcache and Redis; a disabled cache is a no-op.
package cache

import (
	"context"
	"fmt"
	"time"

	"tripplanner/internal/models"
)

// Cache is a byte-oriented TTL cache. A miss is reported as (nil, false, nil);
// errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New creates the cache described by cfg.
func New(cfg models.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return NopCache{}, nil
	}

	switch cfg.Type {
	case models.CacheTypeMemory:
		c := NewMemoryCache(cfg.Memory.MaxSize, WithSweepInterval(cfg.Memory.CleanupInterval))
		c.Start()
		return c, nil
	case models.CacheTypeRedis:
		return NewRedisCache(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopCache) Close() error { return nil }
