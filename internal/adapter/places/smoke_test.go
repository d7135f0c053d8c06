//go:build places

package places

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// These tests hit the live Places API and require PLACES_API_KEY.
// Run with: go test -tags=places ./internal/adapter/places/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("PLACES_API_KEY")
	if key == "" {
		t.Fatal("PLACES_API_KEY must be set to run smoke tests")
	}
	return NewClient(Config{APIKey: key, Timeout: 10 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_AutocompleteThenDetail(t *testing.T) {
	c := smokeClient(t)

	cands, err := c.SearchByText(context.Background(), "stadium", &delhi, domain.CityRadiusMeters, domain.ModeAutocomplete)
	require.NoError(t, err)
	require.NotEmpty(t, cands)

	d, err := c.FetchDetail(context.Background(), cands[0].ProviderID)
	require.NoError(t, err)
	require.NoError(t, d.Coordinate.Validate())
	assert.NotEmpty(t, d.Name)
}

func TestSmoke_Nearby(t *testing.T) {
	c := smokeClient(t)

	cands, err := c.SearchNearby(context.Background(), delhi, domain.WideRadiusMeters)
	require.NoError(t, err)
	assert.NotEmpty(t, cands)
}
