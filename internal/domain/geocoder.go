package domain

import "context"

// Address is the coarse locality of a coordinate.
type Address struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// IsZero reports whether no component is known.
func (a Address) IsZero() bool {
	return a.City == "" && a.State == "" && a.Country == ""
}

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Coordinate       Coordinate
	FormattedAddress string
	PlaceName        string
	Address          Address
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider matched anything.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != ""
}

// Geocoder translates between place names and coordinates. Implementations
// return a zero GeocodingResult and nil error when nothing matches.
type Geocoder interface {
	// ForwardGeocode converts a place name to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, c Coordinate) (GeocodingResult, error)
}

// UserLocation is the device or configured location of the searching user.
type UserLocation struct {
	Coordinate Coordinate `json:"coordinate"`
}

// LocationAcquisition is the platform capability that feeds the reference
// coordinate. Every method degrades to "nothing" instead of failing: a denied
// permission, disabled services, or a locator timeout all look the same.
type LocationAcquisition interface {
	HasPermission(ctx context.Context) bool
	CurrentCoordinate(ctx context.Context) (Coordinate, bool)
	ReverseGeocode(ctx context.Context, c Coordinate) (Address, bool)
}
