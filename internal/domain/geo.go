package domain

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6_371_000.0

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula. It panics if any component is NaN or infinite.
func DistanceMeters(a, b Coordinate) float64 {
	if !isFinite(a.Latitude) || !isFinite(a.Longitude) || !isFinite(b.Latitude) || !isFinite(b.Longitude) {
		panic(fmt.Sprintf("domain.DistanceMeters: non-finite coordinate (%v, %v) -> (%v, %v)",
			a.Latitude, a.Longitude, b.Latitude, b.Longitude))
	}

	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*sinLon*sinLon
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
