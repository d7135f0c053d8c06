package places

import (
	"context"

	"github.com/couchcryptid/venue-discovery/internal/cache"
	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// CachedDetails wraps a VenueProvider and memoises FetchDetail in an LRU.
// Search calls pass through uncached.
type CachedDetails struct {
	domain.VenueSearcher
	inner   domain.DetailFetcher
	cache   *cache.LRU[domain.VenueDetail]
	metrics *observability.Metrics
}

// NewCachedDetails creates a detail cache decorator around a provider.
func NewCachedDetails(inner domain.VenueProvider, maxEntries int, metrics *observability.Metrics) *CachedDetails {
	return &CachedDetails{
		VenueSearcher: inner,
		inner:         inner,
		cache:         cache.NewLRU[domain.VenueDetail](maxEntries),
		metrics:       metrics,
	}
}

func (c *CachedDetails) FetchDetail(ctx context.Context, providerID string) (domain.VenueDetail, error) {
	if d, ok := c.cache.Get(providerID); ok {
		c.metrics.DetailCache.WithLabelValues("hit").Inc()
		return d, nil
	}
	c.metrics.DetailCache.WithLabelValues("miss").Inc()

	d, err := c.inner.FetchDetail(ctx, providerID)
	if err != nil {
		return d, err
	}
	// Failures are not cached so the next lookup can retry.
	c.cache.Put(providerID, d)
	return d, nil
}
