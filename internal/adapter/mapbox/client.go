// Package mapbox implements domain.Geocoder using the Mapbox Geocoding API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// DefaultBaseURL is the Mapbox places geocoding endpoint.
const DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: DefaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode converts a free-form place name to coordinates.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality,neighborhood,address,poi"},
	}

	return c.doRequest(ctx, u+"?"+params.Encode(), "forward")
}

// ReverseGeocode converts coordinates to the enclosing city, region and country.
func (c *Client) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.GeocodingResult, error) {
	// Mapbox uses lon,lat order.
	pair := fmt.Sprintf("%.6f,%.6f", coord.Longitude, coord.Latitude)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, pair)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place"},
	}

	return c.doRequest(ctx, u+"?"+params.Encode(), "reverse")
}

func (c *Client) doRequest(ctx context.Context, fullURL, method string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues(method, "empty").Inc()
		c.logger.Debug("geocode returned no features", "method", method)
		return domain.GeocodingResult{}, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()

	f := mapboxResp.Features[0]
	result := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
		Address:          f.address(),
	}
	if len(f.Center) == 2 {
		result.Coordinate = domain.Coordinate{Latitude: f.Center[1], Longitude: f.Center[0]}
	}
	return result, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string         `json:"id"`     // "<type>.<n>", e.g. "place.123"
	Center    []float64      `json:"center"` // [lon, lat]
	PlaceName string         `json:"place_name"`
	Text      string         `json:"text"`
	Relevance float64        `json:"relevance"`
	Context   []contextEntry `json:"context"`
}

type contextEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// address collects city, region and country from the feature and its
// enclosing context entries.
func (f feature) address() domain.Address {
	var a domain.Address
	entries := append([]contextEntry{{ID: f.ID, Text: f.Text}}, f.Context...)
	for _, e := range entries {
		kind, _, _ := strings.Cut(e.ID, ".")
		switch kind {
		case "place":
			if a.City == "" {
				a.City = e.Text
			}
		case "region":
			a.State = e.Text
		case "country":
			a.Country = e.Text
		}
	}
	return a
}
