package domain

import (
	"fmt"
	"math"
)

// Search radius defaults in meters.
const (
	CityRadiusMeters = 8000
	WideRadiusMeters = 10000
)

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports ErrInvalidCoordinate when either component is non-finite or
// out of range.
func (c Coordinate) Validate() error {
	if !isFinite(c.Latitude) || !isFinite(c.Longitude) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Ptr returns a pointer to a copy of c.
func (c Coordinate) Ptr() *Coordinate {
	return &c
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
