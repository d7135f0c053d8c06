package pipeline

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// search is dispatched.
const DefaultDebounce = 300 * time.Millisecond

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the clock driving the debounce timer and record timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithDebounce sets the debounce delay.
func WithDebounce(delay time.Duration) Option {
	return func(d *Dispatcher) { d.debounce = delay }
}

// WithRadius sets the search radius sent with every dispatched search.
func WithRadius(meters int) Option {
	return func(d *Dispatcher) { d.radius = meters }
}

// WithMode selects autocomplete or full text search.
func WithMode(m domain.SearchMode) Option {
	return func(d *Dispatcher) { d.mode = m }
}

// WithLocation injects the location capability used by RefreshLocation.
func WithLocation(l domain.LocationAcquisition) Option {
	return func(d *Dispatcher) { d.location = l }
}

// WithReference sets the initial reference coordinate.
func WithReference(c domain.Coordinate) Option {
	return func(d *Dispatcher) { d.initialRef = c.Ptr() }
}

// WithRecorder receives a SearchRecord for every settled search.
func WithRecorder(r SearchRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}
