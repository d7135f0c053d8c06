package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _ string) (GeocodingResult, error) {
	m.forwardCalls++
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _ Coordinate) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var delhi = Coordinate{Latitude: 28.6139, Longitude: 77.2090}

// --- ResolvePlace ---

func TestResolvePlace_NilGeocoder(t *testing.T) {
	_, ok := ResolvePlace(context.Background(), "New Delhi", nil, discardLogger())
	assert.False(t, ok)
}

func TestResolvePlace_Success(t *testing.T) {
	geo := &mockGeocoder{
		forwardResult: GeocodingResult{
			Coordinate:       delhi,
			FormattedAddress: "New Delhi, Delhi, India",
			PlaceName:        "New Delhi",
			Confidence:       0.97,
		},
	}

	c, ok := ResolvePlace(context.Background(), "New Delhi", geo, discardLogger())

	assert.True(t, ok)
	assert.Equal(t, delhi, c)
	assert.Equal(t, 1, geo.forwardCalls)
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestResolvePlace_Error_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{forwardErr: errors.New("API timeout")}

	c, ok := ResolvePlace(context.Background(), "New Delhi", geo, discardLogger())

	assert.False(t, ok)
	assert.Equal(t, Coordinate{}, c)
}

func TestResolvePlace_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}

	_, ok := ResolvePlace(context.Background(), "Atlantis", geo, discardLogger())

	assert.False(t, ok)
	assert.Equal(t, 1, geo.forwardCalls)
}

func TestResolvePlace_InvalidCoordinate(t *testing.T) {
	geo := &mockGeocoder{
		forwardResult: GeocodingResult{
			Coordinate:       Coordinate{Latitude: 123, Longitude: 0},
			FormattedAddress: "Nowhere",
		},
	}

	_, ok := ResolvePlace(context.Background(), "Nowhere", geo, discardLogger())
	assert.False(t, ok)
}

func TestResolvePlace_EmptyName(t *testing.T) {
	geo := &mockGeocoder{}

	_, ok := ResolvePlace(context.Background(), "", geo, discardLogger())

	assert.False(t, ok)
	assert.Equal(t, 0, geo.forwardCalls)
}

// --- DescribeCoordinate ---

func TestDescribeCoordinate_Success(t *testing.T) {
	geo := &mockGeocoder{
		reverseResult: GeocodingResult{
			FormattedAddress: "New Delhi, Delhi, India",
			PlaceName:        "New Delhi",
			Address:          Address{City: "New Delhi", State: "Delhi", Country: "India"},
		},
	}

	addr, ok := DescribeCoordinate(context.Background(), delhi, geo, discardLogger())

	assert.True(t, ok)
	assert.Equal(t, Address{City: "New Delhi", State: "Delhi", Country: "India"}, addr)
	assert.Equal(t, 1, geo.reverseCalls)
}

func TestDescribeCoordinate_CityFallsBackToPlaceName(t *testing.T) {
	geo := &mockGeocoder{
		reverseResult: GeocodingResult{
			FormattedAddress: "Gurugram, Haryana, India",
			PlaceName:        "Gurugram",
			Address:          Address{State: "Haryana", Country: "India"},
		},
	}

	addr, ok := DescribeCoordinate(context.Background(), delhi, geo, discardLogger())

	assert.True(t, ok)
	assert.Equal(t, "Gurugram", addr.City)
}

func TestDescribeCoordinate_Error_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{reverseErr: errors.New("rate limited")}

	addr, ok := DescribeCoordinate(context.Background(), delhi, geo, discardLogger())

	assert.False(t, ok)
	assert.True(t, addr.IsZero())
}

func TestDescribeCoordinate_InvalidCoordinateSkipsProvider(t *testing.T) {
	geo := &mockGeocoder{}

	_, ok := DescribeCoordinate(context.Background(), Coordinate{Latitude: 91}, geo, discardLogger())

	assert.False(t, ok)
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestDescribeCoordinate_NoMatch(t *testing.T) {
	geo := &mockGeocoder{}

	_, ok := DescribeCoordinate(context.Background(), delhi, geo, discardLogger())
	assert.False(t, ok)
}
