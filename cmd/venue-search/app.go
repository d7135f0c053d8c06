package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/venue-discovery/internal/adapter/elastic"
	kafkaadapter "github.com/couchcryptid/venue-discovery/internal/adapter/kafka"
	"github.com/couchcryptid/venue-discovery/internal/adapter/location"
	"github.com/couchcryptid/venue-discovery/internal/adapter/mapbox"
	"github.com/couchcryptid/venue-discovery/internal/adapter/places"
	"github.com/couchcryptid/venue-discovery/internal/config"
	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
	"github.com/couchcryptid/venue-discovery/internal/pipeline"
	"github.com/couchcryptid/venue-discovery/internal/search"
)

// app carries the shared dependencies every subcommand builds on.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// provider builds the configured venue backend.
func (a *app) provider() (domain.VenueProvider, error) {
	switch a.cfg.VenueProvider {
	case config.ProviderElastic:
		index, err := a.elasticIndex()
		if err != nil {
			return nil, err
		}
		a.logger.Info("venue provider: elasticsearch", "url", a.cfg.ElasticURL, "index", a.cfg.ElasticIndex)
		return index, nil
	default:
		client := places.NewClient(places.Config{
			APIKey:      a.cfg.PlacesAPIKey,
			BaseURL:     a.cfg.PlacesBaseURL,
			Components:  a.cfg.PlacesComponents,
			NearbyTypes: a.cfg.PlacesNearbyTypes,
			Timeout:     a.cfg.PlacesTimeout,
		}, a.logger, a.metrics)
		a.logger.Info("venue provider: places", "cache_size", a.cfg.PlacesCacheSize, "timeout", a.cfg.PlacesTimeout)
		return places.NewCachedDetails(client, a.cfg.PlacesCacheSize, a.metrics), nil
	}
}

func (a *app) elasticIndex() (*elastic.Index, error) {
	client, err := elastic.Connect(a.cfg.ElasticURL)
	if err != nil {
		return nil, err
	}
	return elastic.NewIndex(client, a.cfg.ElasticIndex, a.cfg.PlacesNearbyTypes, a.logger, a.metrics), nil
}

func (a *app) engine() (*search.Engine, error) {
	provider, err := a.provider()
	if err != nil {
		return nil, err
	}
	cfg := search.DefaultConfig()
	cfg.EnrichConcurrency = a.cfg.EnrichConcurrency
	cfg.DetailTimeout = a.cfg.DetailTimeout
	cfg.Retries = a.cfg.SearchRetries
	cfg.RetryBackoff = a.cfg.SearchRetryBackoff
	return search.New(provider, cfg, a.logger, a.metrics, nil), nil
}

// geocoder returns nil when Mapbox is disabled.
func (a *app) geocoder() domain.Geocoder {
	if !a.cfg.MapboxEnabled {
		a.logger.Info("mapbox geocoding disabled")
		return nil
	}
	client := mapbox.NewClient(a.cfg.MapboxToken, a.cfg.MapboxTimeout, a.logger, a.metrics)
	a.logger.Info("mapbox geocoding enabled", "cache_size", a.cfg.MapboxCacheSize, "timeout", a.cfg.MapboxTimeout)
	return mapbox.NewCachedGeocoder(client, a.cfg.MapboxCacheSize, a.metrics)
}

// location resolves the configured reference point. An explicit coordinate
// wins over REFERENCE_PLACE.
func (a *app) location(ctx context.Context, geocoder domain.Geocoder) *location.Fixed {
	if a.cfg.Reference != nil || a.cfg.ReferencePlace == "" {
		return location.NewFixed(a.cfg.Reference, geocoder, a.logger)
	}
	return location.FromPlace(ctx, a.cfg.ReferencePlace, geocoder, a.logger)
}

// recorder returns the Kafka search sink, or nil when disabled. The returned
// close func is always safe to call.
func (a *app) recorder() (pipeline.SearchRecorder, func()) {
	if !a.cfg.KafkaEnabled {
		return nil, func() {}
	}
	w := kafkaadapter.NewWriter(a.cfg, a.logger, a.metrics)
	a.logger.Info("search records enabled", "topic", a.cfg.KafkaSearchTopic, "brokers", a.cfg.KafkaBrokers)
	return w, func() {
		if err := w.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
}

// reference returns the coordinate from --lat/--lon when given, otherwise the
// configured location's fix.
func (a *app) reference(ctx context.Context, lat, lon *float64) (*domain.Coordinate, error) {
	if lat != nil || lon != nil {
		if lat == nil || lon == nil {
			return nil, fmt.Errorf("--lat and --lon must be given together")
		}
		c := domain.Coordinate{Latitude: *lat, Longitude: *lon}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return &c, nil
	}
	loc := a.location(ctx, a.geocoder())
	if c, ok := loc.CurrentCoordinate(ctx); ok {
		return &c, nil
	}
	return nil, nil
}
