package search

import (
	"cmp"
	"slices"

	"github.com/couchcryptid/venue-discovery/internal/domain"
)

// Rank sorts results in place by ascending distance. Results without a
// distance sort after every result that has one. The sort is stable, so equal
// distances and distance-less results keep their input order.
func Rank(results []domain.VenueResult) {
	slices.SortStableFunc(results, compareDistance)
}

func compareDistance(a, b domain.VenueResult) int {
	switch {
	case a.DistanceMeters == nil && b.DistanceMeters == nil:
		return 0
	case a.DistanceMeters == nil:
		return 1
	case b.DistanceMeters == nil:
		return -1
	default:
		return cmp.Compare(*a.DistanceMeters, *b.DistanceMeters)
	}
}
