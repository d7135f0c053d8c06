// Package location provides server-side implementations of
// domain.LocationAcquisition.
package location

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/venue-discovery/internal/domain"
)

// Fixed reports a configured reference point as the device location. A Fixed
// with no coordinate behaves like a device whose location permission was
// denied.
type Fixed struct {
	mu       sync.RWMutex
	coord    *domain.Coordinate
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewFixed creates a location source for coord. geocoder may be nil, in which
// case ReverseGeocode always reports nothing.
func NewFixed(coord *domain.Coordinate, geocoder domain.Geocoder, logger *slog.Logger) *Fixed {
	return &Fixed{coord: coord, geocoder: geocoder, logger: logger}
}

// FromPlace resolves a place name once through the geocoder and returns a
// Fixed at that point. Resolution failures produce a Fixed without a
// coordinate.
func FromPlace(ctx context.Context, place string, geocoder domain.Geocoder, logger *slog.Logger) *Fixed {
	f := NewFixed(nil, geocoder, logger)
	if c, ok := domain.ResolvePlace(ctx, place, geocoder, logger); ok {
		f.coord = c.Ptr()
		logger.Info("reference location resolved", "place", place, "coordinate", c.String())
	}
	return f
}

// Set replaces the reported coordinate.
func (f *Fixed) Set(c domain.Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coord = c.Ptr()
}

func (f *Fixed) HasPermission(_ context.Context) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.coord != nil
}

func (f *Fixed) CurrentCoordinate(_ context.Context) (domain.Coordinate, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.coord == nil {
		return domain.Coordinate{}, false
	}
	return *f.coord, true
}

func (f *Fixed) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.Address, bool) {
	return domain.DescribeCoordinate(ctx, c, f.geocoder, f.logger)
}
