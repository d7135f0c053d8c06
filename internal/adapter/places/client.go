// Package places implements domain.VenueProvider on top of the Google Places
// web service.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// DefaultBaseURL is the public Places web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// DefaultNearbyTypes are the place categories treated as sports venues.
var DefaultNearbyTypes = []string{"stadium", "gym", "bowling_alley"}

const (
	opAutocomplete = "autocomplete"
	opTextSearch   = "textsearch"
	opNearby       = "nearby"
	opDetails      = "details"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNoGeometry  = "NO_GEOMETRY"

	detailFields = "place_id,name,formatted_address,geometry"
)

// Config holds the Places client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Components  string // e.g. "country:in"; empty means unrestricted
	NearbyTypes []string
	Timeout     time.Duration
}

// Client implements domain.VenueProvider using the Places web service.
// It never retries; callers own the retry policy.
type Client struct {
	apiKey      string
	baseURL     string
	components  string
	nearbyTypes []string
	httpClient  *http.Client
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a Places client.
func NewClient(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	types := cfg.NearbyTypes
	if len(types) == 0 {
		types = DefaultNearbyTypes
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		components:  cfg.Components,
		nearbyTypes: types,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// SearchByText runs an autocomplete or text search. The bias coordinate is
// sent as a soft location preference; results outside the radius are kept.
func (c *Client) SearchByText(ctx context.Context, query string, bias *domain.Coordinate, radiusMeters int, mode domain.SearchMode) ([]domain.SearchCandidate, error) {
	params := url.Values{}
	if bias != nil {
		params.Set("location", latLng(*bias))
		params.Set("radius", strconv.Itoa(radiusMeters))
	}

	if mode == domain.ModeText {
		params.Set("query", query)
		var resp searchResponse
		if err := c.get(ctx, opTextSearch, "/textsearch/json", params, &resp); err != nil {
			return nil, err
		}
		if err := c.checkStatus(opTextSearch, resp.Status, resp.ErrorMessage, len(resp.Results)); err != nil {
			return nil, err
		}
		return candidatesFromPlaces(resp.Results, false), nil
	}

	params.Set("input", query)
	if c.components != "" {
		params.Set("components", c.components)
	}
	var resp autocompleteResponse
	if err := c.get(ctx, opAutocomplete, "/autocomplete/json", params, &resp); err != nil {
		return nil, err
	}
	if err := c.checkStatus(opAutocomplete, resp.Status, resp.ErrorMessage, len(resp.Predictions)); err != nil {
		return nil, err
	}

	out := make([]domain.SearchCandidate, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, p.candidate())
	}
	return out, nil
}

// SearchNearby issues one nearby search per sports category concurrently and
// merges the responses in category order, dropping repeated place ids. Any
// failing category fails the whole call.
func (c *Client) SearchNearby(ctx context.Context, center domain.Coordinate, radiusMeters int) ([]domain.SearchCandidate, error) {
	perType := make([][]domain.SearchCandidate, len(c.nearbyTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, placeType := range c.nearbyTypes {
		g.Go(func() error {
			params := url.Values{
				"location": {latLng(center)},
				"radius":   {strconv.Itoa(radiusMeters)},
				"type":     {placeType},
			}
			var resp searchResponse
			if err := c.get(gctx, opNearby, "/nearbysearch/json", params, &resp); err != nil {
				return err
			}
			if err := c.checkStatus(opNearby, resp.Status, resp.ErrorMessage, len(resp.Results)); err != nil {
				return err
			}
			perType[i] = candidatesFromPlaces(resp.Results, true)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []domain.SearchCandidate
	for _, batch := range perType {
		for _, cand := range batch {
			if _, dup := seen[cand.ProviderID]; dup {
				continue
			}
			seen[cand.ProviderID] = struct{}{}
			out = append(out, cand)
		}
	}
	return out, nil
}

// FetchDetail resolves a place id to its name, address and coordinate.
func (c *Client) FetchDetail(ctx context.Context, providerID string) (domain.VenueDetail, error) {
	params := url.Values{
		"place_id": {providerID},
		"fields":   {detailFields},
	}
	var resp detailResponse
	if err := c.get(ctx, opDetails, "/details/json", params, &resp); err != nil {
		return domain.VenueDetail{}, err
	}
	if resp.Status != statusOK {
		c.metrics.ProviderRequests.WithLabelValues(opDetails, "error").Inc()
		return domain.VenueDetail{}, &domain.ProviderError{Op: opDetails, Status: resp.Status, Message: resp.ErrorMessage}
	}
	r := resp.Result
	loc := r.Geometry.Location
	if loc == nil {
		c.metrics.ProviderRequests.WithLabelValues(opDetails, "error").Inc()
		return domain.VenueDetail{}, &domain.ProviderError{Op: opDetails, Status: statusNoGeometry, Message: "place " + providerID + " has no location"}
	}
	c.metrics.ProviderRequests.WithLabelValues(opDetails, "success").Inc()

	id := r.PlaceID
	if id == "" {
		id = providerID
	}
	return domain.VenueDetail{
		ProviderID: id,
		Name:       r.Name,
		Address:    r.FormattedAddress,
		Coordinate: domain.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng},
	}, nil
}

// get performs the request and decodes the JSON body into out. Provider
// status checking is left to the caller.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	start := time.Now()
	defer func() {
		c.metrics.ProviderDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return &domain.ProviderError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(op, "error").Inc()
		c.logger.Debug("places request failed", "op", op, "error", err)
		return &domain.ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.metrics.ProviderRequests.WithLabelValues(op, "error").Inc()
		return &domain.ProviderError{Op: op, Status: strconv.Itoa(resp.StatusCode), Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ProviderRequests.WithLabelValues(op, "error").Inc()
		return &domain.ProviderError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	c.logger.Debug("places request", "op", op, "duration", time.Since(start))
	return nil
}

// checkStatus maps the provider status to an error and records the outcome.
// ZERO_RESULTS is a successful empty response.
func (c *Client) checkStatus(op, status, message string, n int) error {
	switch {
	case status == statusOK && n > 0:
		c.metrics.ProviderRequests.WithLabelValues(op, "success").Inc()
		return nil
	case status == statusOK, status == statusZeroResults:
		c.metrics.ProviderRequests.WithLabelValues(op, "empty").Inc()
		return nil
	default:
		c.metrics.ProviderRequests.WithLabelValues(op, "error").Inc()
		return &domain.ProviderError{Op: op, Status: status, Message: message}
	}
}

func latLng(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Latitude, 'f', 6, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', 6, 64)
}

func candidatesFromPlaces(results []place, nearby bool) []domain.SearchCandidate {
	out := make([]domain.SearchCandidate, 0, len(results))
	for _, p := range results {
		addr := p.FormattedAddress
		if nearby || addr == "" {
			addr = p.Vicinity
		}
		out = append(out, domain.SearchCandidate{
			ProviderID:     p.PlaceID,
			DisplayName:    p.Name,
			SnippetAddress: addr,
		})
	}
	return out
}

// Places API response types.

type autocompleteResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Predictions  []prediction `json:"predictions"`
}

type prediction struct {
	PlaceID              string `json:"place_id"`
	Description          string `json:"description"`
	StructuredFormatting struct {
		MainText      string `json:"main_text"`
		SecondaryText string `json:"secondary_text"`
	} `json:"structured_formatting"`
}

func (p prediction) candidate() domain.SearchCandidate {
	name := p.StructuredFormatting.MainText
	if name == "" {
		name = p.Description
	}
	addr := p.StructuredFormatting.SecondaryText
	if addr == "" {
		addr = p.Description
	}
	return domain.SearchCandidate{ProviderID: p.PlaceID, DisplayName: name, SnippetAddress: addr}
}

type searchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []place `json:"results"`
}

type detailResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       place  `json:"result"`
}

type place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity"`
	Geometry         geometry `json:"geometry"`
}

// Location is nil when the response omits it.
type geometry struct {
	Location *point `json:"location"`
}

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
