package geocode

import (
	"context"
	"strings"
	"time"
)

// Resolver puts a Cache in front of a Geocoder.
type Resolver struct {
	geocoder Geocoder
	cache    *Cache
	now      func() time.Time
}

// NewResolver wraps geocoder with cache. A nil cache disables caching.
func NewResolver(geocoder Geocoder, cache *Cache) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		cache:    cache,
		now:      time.Now,
	}
}

// Resolve answers from the cache when possible. cached reports whether the
// provider was skipped. Errors are not cached.
func (r *Resolver) Resolve(ctx context.Context, query string) (result Result, cached bool, err error) {
	if r == nil || r.geocoder == nil || strings.TrimSpace(query) == "" {
		return Result{}, false, nil
	}
	if entry, ok := r.cache.Get(query); ok {
		return Result{PostalCode: entry.PostalCode, Found: entry.Found}, true, nil
	}

	result, err = r.geocoder.Geocode(ctx, query)
	if err != nil {
		return Result{}, false, err
	}
	r.cache.Set(query, CacheEntry{
		PostalCode: result.PostalCode,
		Found:      result.Found,
		UpdatedAt:  r.now(),
	})
	return result, false, nil
}
