// Package config loads service settings from environment variables and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/couchcryptid/venue-discovery/internal/domain"
)

// Venue provider backends.
const (
	ProviderPlaces  = "places"
	ProviderElastic = "elastic"
)

// Config holds all service settings.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	VenueProvider string

	// Places web service.
	PlacesAPIKey      string
	PlacesBaseURL     string
	PlacesTimeout     time.Duration
	PlacesComponents  string
	PlacesNearbyTypes []string
	PlacesCacheSize   int

	// Elasticsearch venue index.
	ElasticURL   string
	ElasticIndex string

	// Search behaviour.
	SearchDebounce     time.Duration
	CityRadiusMeters   int
	WideRadiusMeters   int
	SearchRetries      int
	SearchRetryBackoff time.Duration
	EnrichConcurrency  int
	DetailTimeout      time.Duration

	// Reference location; Reference is nil when no coordinate is configured.
	Reference      *domain.Coordinate
	ReferencePlace string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Search analytics sink.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSearchTopic string
}

var defaults = map[string]any{
	"HTTP_ADDR":            ":8080",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
	"SHUTDOWN_TIMEOUT":     "10s",
	"VENUE_PROVIDER":       ProviderPlaces,
	"PLACES_BASE_URL":      "https://maps.googleapis.com/maps/api/place",
	"PLACES_TIMEOUT":       "5s",
	"PLACES_NEARBY_TYPES":  "stadium,gym,bowling_alley",
	"PLACES_CACHE_SIZE":    "1000",
	"ELASTIC_URL":          "http://localhost:9200",
	"ELASTIC_INDEX":        "venues",
	"SEARCH_DEBOUNCE":      "300ms",
	"SEARCH_CITY_RADIUS":   strconv.Itoa(domain.CityRadiusMeters),
	"SEARCH_WIDE_RADIUS":   strconv.Itoa(domain.WideRadiusMeters),
	"SEARCH_RETRIES":       "0",
	"SEARCH_RETRY_BACKOFF": "200ms",
	"ENRICH_CONCURRENCY":   "8",
	"DETAIL_TIMEOUT":       "5s",
	"MAPBOX_TIMEOUT":       "5s",
	"MAPBOX_CACHE_SIZE":    "1000",
	"KAFKA_ENABLED":        "false",
	"KAFKA_BROKERS":        "localhost:9092",
	"KAFKA_SEARCH_TOPIC":   "venue-searches",
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	return load(viper.New())
}

// Option overrides a setting after the environment and file are read.
type Option func(v *viper.Viper)

// WithProvider forces VENUE_PROVIDER, for commands that only work against
// one backend.
func WithProvider(provider string) Option {
	return func(v *viper.Viper) { v.Set("VENUE_PROVIDER", provider) }
}

// LoadFile reads a YAML, JSON or TOML config file whose keys are the
// lower-cased environment variable names. Environment variables take
// precedence over file values. An empty path behaves like Load.
func LoadFile(path string, opts ...Option) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	for _, opt := range opts {
		opt(v)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	p := parser{v: v}

	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		ShutdownTimeout: p.positiveDuration("SHUTDOWN_TIMEOUT"),

		VenueProvider: strings.ToLower(v.GetString("VENUE_PROVIDER")),

		PlacesAPIKey:      v.GetString("PLACES_API_KEY"),
		PlacesBaseURL:     v.GetString("PLACES_BASE_URL"),
		PlacesTimeout:     p.positiveDuration("PLACES_TIMEOUT"),
		PlacesComponents:  v.GetString("PLACES_COMPONENTS"),
		PlacesNearbyTypes: splitList(v.GetString("PLACES_NEARBY_TYPES")),
		PlacesCacheSize:   cacheSize(v, "PLACES_CACHE_SIZE"),

		ElasticURL:   v.GetString("ELASTIC_URL"),
		ElasticIndex: v.GetString("ELASTIC_INDEX"),

		SearchDebounce:     p.duration("SEARCH_DEBOUNCE"),
		CityRadiusMeters:   p.positiveInt("SEARCH_CITY_RADIUS"),
		WideRadiusMeters:   p.positiveInt("SEARCH_WIDE_RADIUS"),
		SearchRetries:      p.nonNegativeInt("SEARCH_RETRIES"),
		SearchRetryBackoff: p.duration("SEARCH_RETRY_BACKOFF"),
		EnrichConcurrency:  p.nonNegativeInt("ENRICH_CONCURRENCY"),
		DetailTimeout:      p.positiveDuration("DETAIL_TIMEOUT"),

		ReferencePlace: v.GetString("REFERENCE_PLACE"),

		MapboxToken:     v.GetString("MAPBOX_TOKEN"),
		MapboxTimeout:   p.positiveDuration("MAPBOX_TIMEOUT"),
		MapboxCacheSize: cacheSize(v, "MAPBOX_CACHE_SIZE"),

		KafkaEnabled:     p.boolean("KAFKA_ENABLED"),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaSearchTopic: strings.TrimSpace(v.GetString("KAFKA_SEARCH_TOPIC")),
	}

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v.IsSet("MAPBOX_ENABLED") && v.GetString("MAPBOX_ENABLED") != "" {
		cfg.MapboxEnabled = p.boolean("MAPBOX_ENABLED")
	}
	cfg.Reference = p.reference()

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.VenueProvider {
	case ProviderPlaces:
		if c.PlacesAPIKey == "" {
			return errors.New("PLACES_API_KEY is required when VENUE_PROVIDER is places")
		}
	case ProviderElastic:
		if c.ElasticURL == "" || c.ElasticIndex == "" {
			return errors.New("ELASTIC_URL and ELASTIC_INDEX are required when VENUE_PROVIDER is elastic")
		}
	default:
		return fmt.Errorf("invalid VENUE_PROVIDER %q: must be places or elastic", c.VenueProvider)
	}
	if c.WideRadiusMeters < c.CityRadiusMeters {
		return errors.New("SEARCH_WIDE_RADIUS must not be smaller than SEARCH_CITY_RADIUS")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaSearchTopic == "" {
			return errors.New("KAFKA_SEARCH_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

// parser records the first conversion error so Load can report it after
// reading every key.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

func (p *parser) duration(key string) time.Duration {
	s := p.v.GetString(key)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		p.fail("invalid %s %q: must be a non-negative duration", key, s)
		return 0
	}
	return d
}

func (p *parser) positiveDuration(key string) time.Duration {
	s := p.v.GetString(key)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		p.fail("invalid %s %q: must be a positive duration", key, s)
		return 0
	}
	return d
}

func (p *parser) positiveInt(key string) int {
	n := p.integer(key)
	if p.err == nil && n <= 0 {
		p.fail("invalid %s %d: must be positive", key, n)
	}
	return n
}

func (p *parser) nonNegativeInt(key string) int {
	n := p.integer(key)
	if p.err == nil && n < 0 {
		p.fail("invalid %s %d: must not be negative", key, n)
	}
	return n
}

func (p *parser) integer(key string) int {
	s := p.v.GetString(key)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		p.fail("invalid %s %q: must be an integer", key, s)
		return 0
	}
	return n
}

func (p *parser) boolean(key string) bool {
	s := p.v.GetString(key)
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail("invalid %s %q: must be true or false", key, s)
		return false
	}
	return b
}

func (p *parser) reference() *domain.Coordinate {
	latStr, lonStr := p.v.GetString("REFERENCE_LAT"), p.v.GetString("REFERENCE_LON")
	if latStr == "" && lonStr == "" {
		return nil
	}
	if latStr == "" || lonStr == "" {
		p.fail("REFERENCE_LAT and REFERENCE_LON must be set together")
		return nil
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		p.fail("invalid REFERENCE_LAT/REFERENCE_LON %q,%q", latStr, lonStr)
		return nil
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		p.fail("invalid REFERENCE_LAT/REFERENCE_LON: %w", err)
		return nil
	}
	return &c
}

// cacheSize falls back to 1000 for missing or unusable values.
func cacheSize(v *viper.Viper, key string) int {
	if n, err := strconv.Atoi(v.GetString(key)); err == nil && n > 0 {
		return n
	}
	return 1000
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
