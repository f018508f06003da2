// Package travel provides a deterministic mock catalog of flight and
// accommodation offers. The same query always yields the same offers, so
// results are safe to cache and to assert on in tests.
package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"time"

	"tripplanner/internal/cache"
	"tripplanner/internal/models"
)

// ErrInvalidQuery wraps validation failures of a search request.
var ErrInvalidQuery = errors.New("invalid search query")

// CatalogInterface is the search surface used by the HTTP layer.
type CatalogInterface interface {
	SearchFlights(ctx context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error)
	SearchAccommodations(ctx context.Context, req models.AccommodationSearchRequest) (*models.AccommodationSearchResponse, error)
}

var _ CatalogInterface = (*Catalog)(nil)

// Catalog serves mock search results through a result cache.
type Catalog struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewCatalog creates a catalog. A nil cache disables caching.
func NewCatalog(c cache.Cache, ttl time.Duration) *Catalog {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Catalog{cache: c, ttl: ttl}
}

// cached returns the decoded cache entry for key if one exists. Cache
// failures are logged and treated as misses.
func (c *Catalog) cached(ctx context.Context, key string, dst any) bool {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Search cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("Search cache entry is corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Catalog) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Search result not cacheable", "key", key, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		slog.Warn("Search cache write failed", "key", key, "error", err)
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
}

// seed derives a stable pseudo-random value from the given parts.
func seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
