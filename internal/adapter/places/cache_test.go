package places

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

type countingProvider struct {
	searchCalls int
	detailCalls int
	detail      domain.VenueDetail
	err         error
}

func (p *countingProvider) SearchByText(context.Context, string, *domain.Coordinate, int, domain.SearchMode) ([]domain.SearchCandidate, error) {
	p.searchCalls++
	return []domain.SearchCandidate{{ProviderID: "p1"}}, nil
}

func (p *countingProvider) SearchNearby(context.Context, domain.Coordinate, int) ([]domain.SearchCandidate, error) {
	p.searchCalls++
	return nil, nil
}

func (p *countingProvider) FetchDetail(_ context.Context, id string) (domain.VenueDetail, error) {
	p.detailCalls++
	if p.err != nil {
		return domain.VenueDetail{}, p.err
	}
	d := p.detail
	d.ProviderID = id
	return d, nil
}

func TestCachedDetails_Hit(t *testing.T) {
	inner := &countingProvider{detail: domain.VenueDetail{Name: "Arena", Coordinate: delhi}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedDetails(inner, 10, metrics)

	d1, err := cached.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)
	d2, err := cached.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Equal(t, 1, inner.detailCalls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DetailCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DetailCache.WithLabelValues("miss")), 0)
}

func TestCachedDetails_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("boom")}
	cached := NewCachedDetails(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.FetchDetail(context.Background(), "p1")
	require.Error(t, err)
	_, err = cached.FetchDetail(context.Background(), "p1")
	require.Error(t, err)

	assert.Equal(t, 2, inner.detailCalls)
}

func TestCachedDetails_SearchPassesThrough(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedDetails(inner, 10, observability.NewMetricsForTesting())

	for range 2 {
		_, err := cached.SearchByText(context.Background(), "gym", nil, 0, domain.ModeAutocomplete)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inner.searchCalls, "search results are never cached")
}
