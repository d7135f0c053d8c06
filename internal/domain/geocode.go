package domain

import (
	"context"
	"log/slog"
)

// ResolvePlace forward-geocodes a place name into a coordinate. A nil geocoder,
// a provider failure, an empty match, or an out-of-range coordinate all yield
// false; failures are logged, never returned.
func ResolvePlace(ctx context.Context, name string, geocoder Geocoder, logger *slog.Logger) (Coordinate, bool) {
	if geocoder == nil || name == "" {
		return Coordinate{}, false
	}

	result, err := geocoder.ForwardGeocode(ctx, name)
	if err != nil {
		logger.Warn("forward geocoding failed", "place", name, "error", err)
		return Coordinate{}, false
	}
	if !result.Found() {
		logger.Info("forward geocoding found no match", "place", name)
		return Coordinate{}, false
	}
	if err := result.Coordinate.Validate(); err != nil {
		logger.Warn("forward geocoding returned invalid coordinate", "place", name, "error", err)
		return Coordinate{}, false
	}
	return result.Coordinate, true
}

// DescribeCoordinate reverse-geocodes c into an Address with the same graceful
// degradation as ResolvePlace.
func DescribeCoordinate(ctx context.Context, c Coordinate, geocoder Geocoder, logger *slog.Logger) (Address, bool) {
	if geocoder == nil {
		return Address{}, false
	}
	if err := c.Validate(); err != nil {
		return Address{}, false
	}

	result, err := geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", c.Latitude,
			"lon", c.Longitude,
			"error", err,
		)
		return Address{}, false
	}
	if !result.Found() {
		return Address{}, false
	}

	addr := result.Address
	if addr.City == "" {
		addr.City = result.PlaceName
	}
	if addr.IsZero() {
		return Address{}, false
	}
	return addr, true
}
