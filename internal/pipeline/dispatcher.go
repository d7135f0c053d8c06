// Package pipeline turns a stream of query edits into debounced searches and
// publishes the resulting SearchState to observers.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
	"github.com/couchcryptid/venue-discovery/internal/search"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("dispatcher closed")

// Searcher runs one search-and-rank cycle. *search.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, req search.Request) ([]domain.VenueResult, error)
	Resolve(ctx context.Context, candidate domain.SearchCandidate, ref *domain.Coordinate) (domain.VenueResult, bool)
}

// Dispatcher owns the SearchState of one search field. It is the only writer
// of that state; observers receive deep copies. Commands are safe to call from
// any goroutine, but one Dispatcher must back exactly one search field.
type Dispatcher struct {
	engine     Searcher
	clock      clockwork.Clock
	debounce   time.Duration
	radius     int
	mode       domain.SearchMode
	location   domain.LocationAcquisition
	recorder   SearchRecorder
	initialRef *domain.Coordinate
	logger     *slog.Logger
	metrics    *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	state          domain.SearchState
	timer          clockwork.Timer
	timerSeq       uint64
	pending        string
	lastDispatched string
	hasDispatched  bool
	inFlight       bool
	generation     uint64
	refAddress     *domain.Address
	subs           map[int]chan domain.SearchState
	nextSub        int
	closed         bool
}

// New creates an idle Dispatcher.
func New(engine Searcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
		radius:   domain.CityRadiusMeters,
		mode:     domain.ModeAutocomplete,
		logger:   slog.Default(),
		subs:     make(map[int]chan domain.SearchState),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = observability.NewMetricsForTesting()
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.state = domain.NewSearchState(d.radius)
	d.state.ReferenceCoordinate = d.initialRef
	return d
}

// OnQueryChanged handles one edit of the query text. A blank query clears the
// results immediately and supersedes any in-flight search. Any other text
// restarts the debounce timer.
func (d *Dispatcher) OnQueryChanged(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.state.QueryText = text
	d.stopTimerLocked()

	query, ok := domain.NormalizeQuery(text)
	if !ok {
		d.generation++
		d.hasDispatched = false
		d.lastDispatched = ""
		d.inFlight = false
		d.state.Results = []domain.VenueResult{}
		d.state.ErrorMessage = ""
		d.state.IsLoading = false
		d.state.Phase = domain.PhaseIdle
		d.publishLocked()
		return
	}

	d.pending = query
	d.timerSeq++
	seq := d.timerSeq
	d.timer = d.clock.AfterFunc(d.debounce, func() { d.fire(seq) })
	d.state.Phase = domain.PhaseDebouncing
	d.publishLocked()
}

// OnReferenceCoordinateChanged sets the reference used by the next dispatched
// search. It never triggers a search on its own.
func (d *Dispatcher) OnReferenceCoordinateChanged(c domain.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.state.ReferenceCoordinate = c.Ptr()
	d.refAddress = nil
	d.publishLocked()
	return nil
}

// RefreshLocation asks the location capability for the current coordinate
// and applies it as the reference, then reverse-geocodes it for
// ReferenceAddress. It reports false when permission is missing or no fix is
// available; a failed address lookup does not affect the result.
func (d *Dispatcher) RefreshLocation(ctx context.Context) bool {
	if d.location == nil || !d.location.HasPermission(ctx) {
		return false
	}
	c, ok := d.location.CurrentCoordinate(ctx)
	if !ok {
		return false
	}
	if err := d.OnReferenceCoordinateChanged(c); err != nil {
		d.logger.Warn("location capability returned unusable coordinate", "error", err)
		return false
	}

	addr, ok := d.location.ReverseGeocode(ctx, c)
	if !ok {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// A newer reference may have landed while the lookup ran.
	if ref := d.state.ReferenceCoordinate; ref != nil && *ref == c {
		d.refAddress = &addr
	}
	return true
}

// ReferenceAddress returns the address the location capability reported for
// the current reference. It is only known after a successful RefreshLocation
// and is forgotten whenever the reference moves.
func (d *Dispatcher) ReferenceAddress() (domain.Address, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.refAddress == nil {
		return domain.Address{}, false
	}
	return *d.refAddress, true
}

// Retry dispatches the current query immediately, even if it equals the last
// dispatched query. It reports false when the query is blank.
func (d *Dispatcher) Retry() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	query, ok := domain.NormalizeQuery(d.state.QueryText)
	if !ok {
		return false
	}
	d.stopTimerLocked()
	d.dispatchLocked(query)
	return true
}

// SelectResult returns the current result with the given provider id. A
// result that lacks a coordinate is resolved just in time; the stored state
// is left untouched. found is false when no such result is listed.
func (d *Dispatcher) SelectResult(ctx context.Context, providerID string) (result domain.VenueResult, found bool) {
	d.mu.Lock()
	var ref *domain.Coordinate
	for _, r := range d.state.Clone().Results {
		if r.ProviderID == providerID {
			result, found = r, true
			break
		}
	}
	if d.state.ReferenceCoordinate != nil {
		ref = d.state.ReferenceCoordinate.Ptr()
	}
	d.mu.Unlock()

	if !found || result.Coordinate != nil {
		return result, found
	}

	resolved, ok := d.engine.Resolve(ctx, domain.SearchCandidate{
		ProviderID:     result.ProviderID,
		DisplayName:    result.Name,
		SnippetAddress: result.Address,
	}, ref)
	if !ok {
		d.logger.Info("selected venue has no coordinate", "provider_id", providerID)
	}
	return resolved, true
}

// State returns a copy of the current state.
func (d *Dispatcher) State() domain.SearchState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers skip intermediate states. The channel starts with the current state
// and is closed by the returned cancel func or by Close.
func (d *Dispatcher) Subscribe() (<-chan domain.SearchState, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan domain.SearchState, 1)
	if d.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- d.state.Clone()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if c, ok := d.subs[id]; ok {
				delete(d.subs, id)
				close(c)
			}
		})
	}
}

// Close stops the debounce timer, cancels in-flight searches and closes all
// subscriber channels. It waits for in-flight searches to return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopTimerLocked()
	d.cancel()
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) fire(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || seq != d.timerSeq {
		return
	}
	d.timer = nil

	if d.hasDispatched && d.pending == d.lastDispatched {
		d.metrics.SearchesSuppressed.Inc()
		d.logger.Debug("query unchanged, not redispatching", "query", d.pending)
		if d.inFlight {
			d.state.Phase = domain.PhaseSearching
		} else {
			d.state.Phase = domain.PhaseSettled
		}
		d.publishLocked()
		return
	}
	d.dispatchLocked(d.pending)
}

func (d *Dispatcher) dispatchLocked(query string) {
	d.generation++
	gen := d.generation
	d.lastDispatched = query
	d.hasDispatched = true
	d.inFlight = true

	d.state.IsLoading = true
	d.state.Phase = domain.PhaseSearching
	d.publishLocked()

	req := search.Request{
		Query:        query,
		RadiusMeters: d.state.SearchRadiusMeters,
		Mode:         d.mode,
	}
	if d.state.ReferenceCoordinate != nil {
		req.Reference = d.state.ReferenceCoordinate.Ptr()
	}

	sport := domain.IsSportQuery(query)
	d.metrics.SearchesDispatched.WithLabelValues(strconv.FormatBool(sport)).Inc()
	d.logger.Debug("search dispatched", "query", query, "generation", gen, "sport", sport)

	d.wg.Add(1)
	go d.run(gen, req, sport)
}

func (d *Dispatcher) run(gen uint64, req search.Request, sport bool) {
	defer d.wg.Done()

	start := d.clock.Now()
	results, err := d.engine.Search(d.ctx, req)

	d.mu.Lock()
	if d.closed || gen != d.generation {
		d.mu.Unlock()
		d.metrics.SearchesDiscarded.Inc()
		d.logger.Debug("discarding superseded search", "query", req.Query, "generation", gen)
		return
	}

	d.inFlight = false
	d.state.IsLoading = false
	d.state.Phase = domain.PhaseSettled
	if err != nil {
		d.state.Results = []domain.VenueResult{}
		d.state.ErrorMessage = err.Error()
		d.logger.Warn("search failed", "query", req.Query, "error", err)
	} else {
		if results == nil {
			results = []domain.VenueResult{}
		}
		d.state.Results = results
		d.state.ErrorMessage = ""
	}
	d.publishLocked()
	d.mu.Unlock()

	if d.recorder == nil {
		return
	}
	rec := SearchRecord{
		ID:           uuid.NewString(),
		Query:        req.Query,
		Sport:        sport,
		Mode:         req.Mode,
		ResultCount:  len(results),
		Reference:    req.Reference,
		RadiusMeters: req.RadiusMeters,
		DurationMs:   d.clock.Since(start).Milliseconds(),
		Timestamp:    d.clock.Now().UTC(),
	}
	for _, r := range results {
		if r.HasDistance() {
			rec.WithDistance++
		}
	}
	if err != nil {
		rec.Error = err.Error()
		rec.ResultCount = 0
	}
	if rerr := d.recorder.RecordSearch(d.ctx, rec); rerr != nil {
		d.logger.Warn("record search failed", "search_id", rec.ID, "error", rerr)
	}
}

func (d *Dispatcher) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerSeq++
}

// publishLocked hands each subscriber its own copy of the state, replacing any
// value the subscriber has not read yet.
func (d *Dispatcher) publishLocked() {
	for _, ch := range d.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- d.state.Clone():
		default:
		}
	}
}
