// Package domain models venue discovery for the sports-matchmaking app.
//
// # Search Cycle
//
// One search cycle turns a free-text query into a ranked venue list:
//
//	raw text  →  NormalizeQuery  →  VenueSearcher.SearchByText  →  []SearchCandidate
//	          →  DetailFetcher.FetchDetail (one per candidate)   →  []VenueResult
//
// Candidates carry only what the provider's search endpoint returns (id, display
// name, snippet address). Coordinates arrive through a separate detail lookup, and
// that lookup is allowed to fail per candidate: a VenueResult without a Coordinate
// or DistanceMeters is a valid result, not an error.
//
// # Coordinates
//
// Coordinates are WGS-84 decimal degrees. Latitude is bounded to [-90, 90] and
// longitude to [-180, 180]; Validate rejects anything outside those ranges or any
// non-finite component. Provider data is validated before it reaches
// DistanceMeters, which panics on non-finite input.
//
// # Distance
//
// DistanceMeters uses the haversine formula over a spherical Earth with mean radius
// 6,371,000 m. One degree of latitude is therefore ≈ 111,195 m everywhere.
//
// # Search Radius
//
// Providers receive the reference coordinate as a soft bias together with a radius.
// Two defaults exist: CityRadiusMeters (8 km) for searches scoped to a metropolitan
// area and WideRadiusMeters (10 km) for unrestricted searches. Neither is applied
// implicitly; callers pass the radius explicitly.
//
// # Sport Queries
//
// IsSportQuery flags queries mentioning a sport from SportNames. The flag is
// advisory: the provider query is never rewritten, and the provider's own relevance
// ranking decides how sports venues are ordered within its candidate list.
package domain
