// Package elastic implements domain.VenueProvider over a local Elasticsearch
// venue index.
package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

const (
	opAutocomplete = "autocomplete"
	opTextSearch   = "textsearch"
	opNearby       = "nearby"
	opDetails      = "details"

	searchSize = 20
	nearbySize = 50
)

// Venue is the document stored in the index.
type Venue struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Address  string           `json:"address"`
	Category string           `json:"category"`
	Location elastic.GeoPoint `json:"location"`
}

func (v Venue) candidate() domain.SearchCandidate {
	return domain.SearchCandidate{ProviderID: v.ID, DisplayName: v.Name, SnippetAddress: v.Address}
}

func (v Venue) detail() domain.VenueDetail {
	return domain.VenueDetail{
		ProviderID: v.ID,
		Name:       v.Name,
		Address:    v.Address,
		Coordinate: domain.Coordinate{Latitude: v.Location.Lat, Longitude: v.Location.Lon},
	}
}

var mapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":       map[string]any{"type": "keyword"},
			"name":     map[string]any{"type": "text"},
			"address":  map[string]any{"type": "text"},
			"category": map[string]any{"type": "keyword"},
			"location": map[string]any{"type": "geo_point"},
		},
	},
}

// Connect creates an Elasticsearch client for a single-node endpoint.
func Connect(url string) (*elastic.Client, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheckTimeoutStartup(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect elasticsearch %s: %w", url, err)
	}
	return client, nil
}

// Index is a venue provider backed by an Elasticsearch index.
type Index struct {
	client     *elastic.Client
	index      string
	categories []string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewIndex wraps an existing client. categories restricts SearchNearby to
// venues with one of the given category values.
func NewIndex(client *elastic.Client, index string, categories []string, logger *slog.Logger, metrics *observability.Metrics) *Index {
	return &Index{
		client:     client,
		index:      index,
		categories: categories,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateIndex creates the venue index with its geo_point mapping unless it
// already exists.
func (x *Index) CreateIndex(ctx context.Context) error {
	exists, err := x.client.IndexExists(x.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", x.index, err)
	}
	if exists {
		x.logger.Info("venue index already exists", "index", x.index)
		return nil
	}

	res, err := x.client.CreateIndex(x.index).BodyJson(mapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	if !res.Acknowledged {
		x.logger.Warn("create index not acknowledged", "index", x.index)
	}
	x.logger.Info("venue index created", "index", x.index)
	return nil
}

// LoadVenues bulk-indexes venues and returns how many were stored.
func (x *Index) LoadVenues(ctx context.Context, venues []Venue) (int, error) {
	if len(venues) == 0 {
		return 0, nil
	}
	bulk := x.client.Bulk().Index(x.index)
	for _, v := range venues {
		bulk.Add(elastic.NewBulkIndexRequest().Id(v.ID).Doc(v))
	}

	res, err := bulk.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk index venues: %w", err)
	}
	failed := res.Failed()
	for _, item := range failed {
		reason := ""
		if item.Error != nil {
			reason = item.Error.Reason
		}
		x.logger.Warn("venue not indexed", "id", item.Id, "reason", reason)
	}
	return len(venues) - len(failed), nil
}

// SearchByText matches the query against venue name and address. In
// autocomplete mode the last term is matched as a prefix. The bias point
// boosts venues within radiusMeters without excluding the rest.
func (x *Index) SearchByText(ctx context.Context, query string, bias *domain.Coordinate, radiusMeters int, mode domain.SearchMode) ([]domain.SearchCandidate, error) {
	op := opAutocomplete
	match := elastic.NewMultiMatchQuery(query, "name^2", "address").Type("phrase_prefix")
	if mode == domain.ModeText {
		op = opTextSearch
		match = elastic.NewMultiMatchQuery(query, "name^2", "address").Type("best_fields").Fuzziness("AUTO")
	}

	q := elastic.NewBoolQuery().Must(match)
	if bias != nil {
		q = q.Should(elastic.NewGeoDistanceQuery("location").
			Point(bias.Latitude, bias.Longitude).
			Distance(strconv.Itoa(radiusMeters) + "m"))
	}

	venues, err := x.search(ctx, op, x.client.Search().Index(x.index).Query(q).Size(searchSize))
	if err != nil {
		return nil, err
	}
	out := make([]domain.SearchCandidate, 0, len(venues))
	for _, v := range venues {
		out = append(out, v.candidate())
	}
	return out, nil
}

// SearchNearby returns sports venues within radiusMeters of center, nearest first.
func (x *Index) SearchNearby(ctx context.Context, center domain.Coordinate, radiusMeters int) ([]domain.SearchCandidate, error) {
	q := elastic.NewBoolQuery().Filter(
		elastic.NewGeoDistanceQuery("location").
			Point(center.Latitude, center.Longitude).
			Distance(strconv.Itoa(radiusMeters) + "m"),
	)
	if len(x.categories) > 0 {
		terms := make([]any, len(x.categories))
		for i, c := range x.categories {
			terms[i] = c
		}
		q = q.Filter(elastic.NewTermsQuery("category", terms...))
	}

	svc := x.client.Search().
		Index(x.index).
		Query(q).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(center.Latitude, center.Longitude).
			Asc().
			Unit("m").
			DistanceType("arc")).
		Size(nearbySize)

	venues, err := x.search(ctx, opNearby, svc)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SearchCandidate, 0, len(venues))
	for _, v := range venues {
		out = append(out, v.candidate())
	}
	return out, nil
}

// FetchDetail loads a venue document by id.
func (x *Index) FetchDetail(ctx context.Context, providerID string) (domain.VenueDetail, error) {
	start := time.Now()
	defer x.observe(opDetails, start)

	res, err := x.client.Get().Index(x.index).Id(providerID).Do(ctx)
	if err != nil {
		x.metrics.ProviderRequests.WithLabelValues(opDetails, "error").Inc()
		return domain.VenueDetail{}, providerError(opDetails, err)
	}
	if !res.Found {
		x.metrics.ProviderRequests.WithLabelValues(opDetails, "error").Inc()
		return domain.VenueDetail{}, &domain.ProviderError{Op: opDetails, Status: "NOT_FOUND"}
	}

	// The outer Location shadows Venue.Location so a missing field stays nil.
	var doc struct {
		Venue
		Location *elastic.GeoPoint `json:"location"`
	}
	if err := json.Unmarshal(res.Source, &doc); err != nil {
		x.metrics.ProviderRequests.WithLabelValues(opDetails, "error").Inc()
		return domain.VenueDetail{}, &domain.ProviderError{Op: opDetails, Err: fmt.Errorf("decode venue %s: %w", providerID, err)}
	}
	if doc.Location == nil {
		x.metrics.ProviderRequests.WithLabelValues(opDetails, "error").Inc()
		return domain.VenueDetail{}, &domain.ProviderError{Op: opDetails, Status: "NO_GEOMETRY", Message: "venue " + providerID + " has no location"}
	}
	v := doc.Venue
	v.Location = *doc.Location
	if v.ID == "" {
		v.ID = res.Id
	}
	x.metrics.ProviderRequests.WithLabelValues(opDetails, "success").Inc()
	return v.detail(), nil
}

// CheckReadiness reports whether the venue index is reachable.
func (x *Index) CheckReadiness(ctx context.Context) error {
	exists, err := x.client.IndexExists(x.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("elasticsearch not reachable: %w", err)
	}
	if !exists {
		return fmt.Errorf("venue index %s does not exist", x.index)
	}
	return nil
}

func (x *Index) search(ctx context.Context, op string, svc *elastic.SearchService) ([]Venue, error) {
	start := time.Now()
	defer x.observe(op, start)

	res, err := svc.Do(ctx)
	if err != nil {
		x.metrics.ProviderRequests.WithLabelValues(op, "error").Inc()
		x.logger.Debug("elasticsearch query failed", "op", op, "error", err)
		return nil, providerError(op, err)
	}

	var venues []Venue
	if res.Hits != nil {
		for _, hit := range res.Hits.Hits {
			var v Venue
			if err := json.Unmarshal(hit.Source, &v); err != nil {
				x.logger.Warn("skipping malformed venue document", "id", hit.Id, "error", err)
				continue
			}
			if v.ID == "" {
				v.ID = hit.Id
			}
			venues = append(venues, v)
		}
	}

	outcome := "success"
	if len(venues) == 0 {
		outcome = "empty"
	}
	x.metrics.ProviderRequests.WithLabelValues(op, outcome).Inc()
	return venues, nil
}

func (x *Index) observe(op string, start time.Time) {
	x.metrics.ProviderDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func providerError(op string, err error) error {
	var eErr *elastic.Error
	if errors.As(err, &eErr) {
		msg := ""
		if eErr.Details != nil {
			msg = eErr.Details.Reason
		}
		status := strconv.Itoa(eErr.Status)
		if eErr.Status == http.StatusNotFound {
			status = "NOT_FOUND"
		}
		return &domain.ProviderError{Op: op, Status: status, Message: msg, Err: err}
	}
	return &domain.ProviderError{Op: op, Err: err}
}
