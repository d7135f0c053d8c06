package domain

// SearchMode selects the provider endpoint used for text searches.
type SearchMode string

const (
	// ModeAutocomplete queries the provider's autocomplete endpoint, tuned for
	// partial input while the user is typing.
	ModeAutocomplete SearchMode = "autocomplete"
	// ModeText queries the provider's full text-search endpoint.
	ModeText SearchMode = "text"
)

// ParseSearchMode maps a user-supplied mode name to a SearchMode. Unknown or
// empty names fall back to ModeAutocomplete.
func ParseSearchMode(s string) SearchMode {
	if SearchMode(s) == ModeText {
		return ModeText
	}
	return ModeAutocomplete
}

// SearchCandidate is one entry of a provider search response, before enrichment.
type SearchCandidate struct {
	ProviderID     string `json:"provider_id"`
	DisplayName    string `json:"display_name"`
	SnippetAddress string `json:"snippet_address,omitempty"`
}

// VenueDetail is the provider's detail record for a single venue.
type VenueDetail struct {
	ProviderID string     `json:"provider_id"`
	Name       string     `json:"name"`
	Address    string     `json:"address,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
}

// VenueResult is an enriched, rankable venue. Coordinate and DistanceMeters are
// nil when enrichment failed or no reference point was known.
type VenueResult struct {
	ProviderID     string      `json:"provider_id"`
	Name           string      `json:"name"`
	Address        string      `json:"address,omitempty"`
	Coordinate     *Coordinate `json:"coordinate,omitempty"`
	DistanceMeters *float64    `json:"distance_meters,omitempty"`
}

// HasDistance reports whether the result carries a distance.
func (r VenueResult) HasDistance() bool {
	return r.DistanceMeters != nil
}

// ResultFromCandidate builds an unenriched result carrying the candidate's
// name and address.
func ResultFromCandidate(c SearchCandidate) VenueResult {
	return VenueResult{
		ProviderID: c.ProviderID,
		Name:       c.DisplayName,
		Address:    c.SnippetAddress,
	}
}

// Phase is the dispatch state of a SearchState.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDebouncing Phase = "debouncing"
	PhaseSearching  Phase = "searching"
	PhaseSettled    Phase = "settled"
)

// SearchState is the observable state of one search field.
type SearchState struct {
	QueryText           string        `json:"query_text"`
	IsLoading           bool          `json:"is_loading"`
	Results             []VenueResult `json:"results"`
	ErrorMessage        string        `json:"error_message,omitempty"`
	ReferenceCoordinate *Coordinate   `json:"reference_coordinate,omitempty"`
	SearchRadiusMeters  int           `json:"search_radius_meters"`
	Phase               Phase         `json:"phase"`
}

// NewSearchState returns an idle state with the given radius.
func NewSearchState(radiusMeters int) SearchState {
	return SearchState{
		Results:            []VenueResult{},
		SearchRadiusMeters: radiusMeters,
		Phase:              PhaseIdle,
	}
}

// Clone returns a deep copy so observers never share memory with the writer.
func (s SearchState) Clone() SearchState {
	out := s
	out.Results = make([]VenueResult, len(s.Results))
	for i, r := range s.Results {
		if r.Coordinate != nil {
			c := *r.Coordinate
			r.Coordinate = &c
		}
		if r.DistanceMeters != nil {
			d := *r.DistanceMeters
			r.DistanceMeters = &d
		}
		out.Results[i] = r
	}
	if s.ReferenceCoordinate != nil {
		c := *s.ReferenceCoordinate
		out.ReferenceCoordinate = &c
	}
	return out
}
