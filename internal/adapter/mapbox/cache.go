package mapbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/venue-discovery/internal/cache"
	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *cache.LRU[domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   cache.NewLRU[domain.GeocodingResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(query))
	return c.lookup("forward", key, func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, query)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", coord.Latitude, coord.Longitude)
	return c.lookup("reverse", key, func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, coord)
	})
}

func (c *CachedGeocoder) lookup(method, key string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	result, err := fetch()
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.Found() {
		c.cache.Put(key, result)
	}
	return result, nil
}
