package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "venue_search"

// Metrics holds the Prometheus counters and histograms for venue discovery.
type Metrics struct {
	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: op={autocomplete,textsearch,nearby,details}, outcome={success,empty,error}
	ProviderDuration *prometheus.HistogramVec // labels: op
	DetailCache      *prometheus.CounterVec   // labels: result={hit,miss}

	// Enrichment and dispatch metrics.
	EnrichmentFailures prometheus.Counter
	SearchesDispatched *prometheus.CounterVec // labels: sport={true,false}
	SearchesDiscarded  prometheus.Counter
	SearchesSuppressed prometheus.Counter
	SearchDuration     prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: method={forward,reverse}, result={hit,miss}

	// Search record sink.
	RecordsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them so tests can
// build as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Venue provider requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Venue provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),
		DetailCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_cache_total",
			Help:      "Venue detail cache lookups by result.",
		}, []string{"result"}),
		EnrichmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Candidates whose detail fetch failed and were ranked without a distance.",
		}),
		SearchesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_dispatched_total",
			Help:      "Searches dispatched after debouncing, by sport classification.",
		}, []string{"sport"}),
		SearchesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_discarded_total",
			Help:      "Search outcomes dropped because a newer search superseded them.",
		}),
		SearchesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_suppressed_total",
			Help:      "Debounced queries not dispatched because they matched the previous query.",
		}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of a complete search, enrichment and ranking cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		RecordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_records_published_total",
			Help:      "Search records written to the analytics topic by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ProviderRequests,
		m.ProviderDuration,
		m.DetailCache,
		m.EnrichmentFailures,
		m.SearchesDispatched,
		m.SearchesDiscarded,
		m.SearchesSuppressed,
		m.SearchDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.RecordsPublished,
	}
}
