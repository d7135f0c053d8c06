package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/venue-discovery/internal/domain"
)

const (
	defaultBroker   = "localhost:9092"
	testPlacesKey   = "places-test-key"
	testMapboxToken = "pk.test-token"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PLACES_API_KEY", testPlacesKey)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ProviderPlaces, cfg.VenueProvider)
	assert.Equal(t, testPlacesKey, cfg.PlacesAPIKey)
	assert.Equal(t, "https://maps.googleapis.com/maps/api/place", cfg.PlacesBaseURL)
	assert.Equal(t, 5*time.Second, cfg.PlacesTimeout)
	assert.Empty(t, cfg.PlacesComponents)
	assert.Equal(t, []string{"stadium", "gym", "bowling_alley"}, cfg.PlacesNearbyTypes)
	assert.Equal(t, 1000, cfg.PlacesCacheSize)
	assert.Equal(t, "http://localhost:9200", cfg.ElasticURL)
	assert.Equal(t, "venues", cfg.ElasticIndex)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, domain.CityRadiusMeters, cfg.CityRadiusMeters)
	assert.Equal(t, domain.WideRadiusMeters, cfg.WideRadiusMeters)
	assert.Zero(t, cfg.SearchRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.SearchRetryBackoff)
	assert.Equal(t, 8, cfg.EnrichConcurrency)
	assert.Equal(t, 5*time.Second, cfg.DetailTimeout)
	assert.Nil(t, cfg.Reference)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "venue-searches", cfg.KafkaSearchTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("PLACES_COMPONENTS", "country:in")
	t.Setenv("PLACES_NEARBY_TYPES", "stadium, gym ,")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")
	t.Setenv("SEARCH_CITY_RADIUS", "5000")
	t.Setenv("SEARCH_WIDE_RADIUS", "12000")
	t.Setenv("SEARCH_RETRIES", "2")
	t.Setenv("ENRICH_CONCURRENCY", "0")
	t.Setenv("REFERENCE_LAT", "28.6139")
	t.Setenv("REFERENCE_LON", "77.2090")
	t.Setenv("REFERENCE_PLACE", "Connaught Place")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SEARCH_TOPIC", "custom-searches")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "country:in", cfg.PlacesComponents)
	assert.Equal(t, []string{"stadium", "gym"}, cfg.PlacesNearbyTypes)
	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 5000, cfg.CityRadiusMeters)
	assert.Equal(t, 12000, cfg.WideRadiusMeters)
	assert.Equal(t, 2, cfg.SearchRetries)
	assert.Zero(t, cfg.EnrichConcurrency)
	require.NotNil(t, cfg.Reference)
	assert.Equal(t, domain.Coordinate{Latitude: 28.6139, Longitude: 77.2090}, *cfg.Reference)
	assert.Equal(t, "Connaught Place", cfg.ReferencePlace)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-searches", cfg.KafkaSearchTopic)
}

func TestLoad_ElasticProviderNeedsNoPlacesKey(t *testing.T) {
	t.Setenv("VENUE_PROVIDER", "elastic")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderElastic, cfg.VenueProvider)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing places key", env: map[string]string{"PLACES_API_KEY": ""}, wantErr: "PLACES_API_KEY"},
		{name: "unknown provider", env: map[string]string{"VENUE_PROVIDER": "foursquare"}, wantErr: "VENUE_PROVIDER"},
		{name: "invalid shutdown timeout", env: map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, wantErr: "SHUTDOWN_TIMEOUT"},
		{name: "negative shutdown timeout", env: map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, wantErr: "SHUTDOWN_TIMEOUT"},
		{name: "invalid debounce", env: map[string]string{"SEARCH_DEBOUNCE": "soon"}, wantErr: "SEARCH_DEBOUNCE"},
		{name: "zero radius", env: map[string]string{"SEARCH_CITY_RADIUS": "0"}, wantErr: "SEARCH_CITY_RADIUS"},
		{name: "wide below city", env: map[string]string{"SEARCH_WIDE_RADIUS": "1000"}, wantErr: "SEARCH_WIDE_RADIUS"},
		{name: "negative retries", env: map[string]string{"SEARCH_RETRIES": "-1"}, wantErr: "SEARCH_RETRIES"},
		{name: "non-numeric concurrency", env: map[string]string{"ENRICH_CONCURRENCY": "many"}, wantErr: "ENRICH_CONCURRENCY"},
		{name: "zero detail timeout", env: map[string]string{"DETAIL_TIMEOUT": "0s"}, wantErr: "DETAIL_TIMEOUT"},
		{name: "lat without lon", env: map[string]string{"REFERENCE_LAT": "28.6"}, wantErr: "REFERENCE_LON"},
		{name: "reference out of range", env: map[string]string{"REFERENCE_LAT": "91", "REFERENCE_LON": "0"}, wantErr: "REFERENCE_LAT"},
		{name: "invalid mapbox timeout", env: map[string]string{"MAPBOX_TIMEOUT": "bad"}, wantErr: "MAPBOX_TIMEOUT"},
		{name: "mapbox enabled without token", env: map[string]string{"MAPBOX_ENABLED": "true"}, wantErr: "MAPBOX_TOKEN"},
		{name: "invalid kafka flag", env: map[string]string{"KAFKA_ENABLED": "yes please"}, wantErr: "KAFKA_ENABLED"},
		{name: "kafka without topic", env: map[string]string{"KAFKA_ENABLED": "true", "KAFKA_SEARCH_TOPIC": " "}, wantErr: "KAFKA_SEARCH_TOPIC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	setRequired(t)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("MAPBOX_CACHE_SIZE", "-5")
	t.Setenv("PLACES_CACHE_SIZE", "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Equal(t, 1000, cfg.PlacesCacheSize)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venue-search.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"places_api_key: from-file\n"+
			"http_addr: \":7070\"\n"+
			"search_debounce: 500ms\n"+
			"kafka_search_topic: file-topic\n",
	), 0o600))
	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.PlacesAPIKey)
	assert.Equal(t, ":6060", cfg.HTTPAddr, "environment wins over file")
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "file-topic", cfg.KafkaSearchTopic)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadFile_WithProviderSkipsPlacesKey(t *testing.T) {
	t.Setenv("VENUE_PROVIDER", "places")
	t.Setenv("PLACES_API_KEY", "")

	_, err := LoadFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLACES_API_KEY")

	cfg, err := LoadFile("", WithProvider(ProviderElastic))
	require.NoError(t, err)
	assert.Equal(t, ProviderElastic, cfg.VenueProvider)
}
