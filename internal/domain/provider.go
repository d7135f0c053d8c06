package domain

import "context"

// VenueSearcher produces search candidates from a venue provider.
type VenueSearcher interface {
	// SearchByText runs a text or autocomplete search. bias, when non-nil, is a
	// soft location hint; candidates outside radiusMeters are still returned.
	SearchByText(ctx context.Context, query string, bias *Coordinate, radiusMeters int, mode SearchMode) ([]SearchCandidate, error)

	// SearchNearby lists sports venues around center.
	SearchNearby(ctx context.Context, center Coordinate, radiusMeters int) ([]SearchCandidate, error)
}

// DetailFetcher resolves a single candidate to its detail record.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, providerID string) (VenueDetail, error)
}

// VenueProvider is a complete venue backend.
type VenueProvider interface {
	VenueSearcher
	DetailFetcher
}
