// Package search enriches provider candidates with coordinates and ranks them
// by distance from a reference point.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// Config tunes enrichment fan-out and the caller-level retry policy.
type Config struct {
	// EnrichConcurrency caps concurrent detail fetches; 0 means unbounded.
	EnrichConcurrency int
	// DetailTimeout bounds each detail fetch; 0 disables the per-fetch timeout.
	DetailTimeout time.Duration
	// Retries is how many times a failed initial search is repeated.
	Retries int
	// RetryBackoff is the first retry delay; it doubles up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		EnrichConcurrency: 8,
		DetailTimeout:     5 * time.Second,
		RetryBackoff:      200 * time.Millisecond,
		MaxRetryBackoff:   5 * time.Second,
	}
}

// Request is one text search.
type Request struct {
	Query        string
	Reference    *domain.Coordinate // soft bias and distance origin; nil when unknown
	RadiusMeters int
	Mode         domain.SearchMode
}

// Engine runs searches against a provider and ranks the enriched results. It
// holds no per-search state and is safe for concurrent use.
type Engine struct {
	provider domain.VenueProvider
	cfg      Config
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates an Engine. A nil clock uses the real clock.
func New(provider domain.VenueProvider, cfg Config, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.MaxRetryBackoff <= 0 {
		cfg.MaxRetryBackoff = 5 * time.Second
	}
	return &Engine{
		provider: provider,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Search runs a text search and returns the ranked results. A blank query
// returns an empty list without calling the provider. Only failures of the
// initial provider call are returned.
func (e *Engine) Search(ctx context.Context, req Request) ([]domain.VenueResult, error) {
	query, ok := domain.NormalizeQuery(req.Query)
	if !ok {
		return []domain.VenueResult{}, nil
	}
	if req.Reference != nil {
		if err := req.Reference.Validate(); err != nil {
			return nil, err
		}
	}

	start := e.clock.Now()
	candidates, err := withRetry(ctx, e, "search", func(ctx context.Context) ([]domain.SearchCandidate, error) {
		return e.provider.SearchByText(ctx, query, req.Reference, req.RadiusMeters, req.Mode)
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := e.EnrichAndRank(ctx, candidates, req.Reference)
	e.metrics.SearchDuration.Observe(e.clock.Since(start).Seconds())
	e.logger.Debug("search ranked",
		"query", query,
		"sport", domain.IsSportQuery(query),
		"candidates", len(candidates),
	)
	return results, nil
}

// Nearby lists sports venues around center, nearest first.
func (e *Engine) Nearby(ctx context.Context, center domain.Coordinate, radiusMeters int) ([]domain.VenueResult, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}

	start := e.clock.Now()
	candidates, err := withRetry(ctx, e, "nearby", func(ctx context.Context) ([]domain.SearchCandidate, error) {
		return e.provider.SearchNearby(ctx, center, radiusMeters)
	})
	if err != nil {
		return nil, fmt.Errorf("nearby %s: %w", center, err)
	}

	results := e.EnrichAndRank(ctx, candidates, &center)
	e.metrics.SearchDuration.Observe(e.clock.Since(start).Seconds())
	return results, nil
}

// EnrichAndRank fetches details for every candidate concurrently and returns
// one result per candidate, ranked by distance from ref. A failed fetch
// yields a result without coordinate or distance; it never fails the batch.
func (e *Engine) EnrichAndRank(ctx context.Context, candidates []domain.SearchCandidate, ref *domain.Coordinate) []domain.VenueResult {
	results := make([]domain.VenueResult, len(candidates))

	var g errgroup.Group
	if e.cfg.EnrichConcurrency > 0 {
		g.SetLimit(e.cfg.EnrichConcurrency)
	}
	for i, c := range candidates {
		g.Go(func() error {
			results[i] = e.enrich(ctx, c, ref)
			return nil
		})
	}
	_ = g.Wait() // tasks never fail

	Rank(results)
	return results
}

// Resolve fetches a single candidate's detail and distance. ok is false when
// the detail could not be resolved; the result then carries the candidate's
// name and address only.
func (e *Engine) Resolve(ctx context.Context, candidate domain.SearchCandidate, ref *domain.Coordinate) (domain.VenueResult, bool) {
	r := e.enrich(ctx, candidate, ref)
	return r, r.Coordinate != nil
}

// CheckReadiness delegates to the provider when it can report readiness.
func (e *Engine) CheckReadiness(ctx context.Context) error {
	if rc, ok := e.provider.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

func (e *Engine) enrich(ctx context.Context, c domain.SearchCandidate, ref *domain.Coordinate) domain.VenueResult {
	result := domain.ResultFromCandidate(c)

	fetchCtx := ctx
	if e.cfg.DetailTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.DetailTimeout)
		defer cancel()
	}

	detail, err := e.provider.FetchDetail(fetchCtx, c.ProviderID)
	if err == nil {
		err = detail.Coordinate.Validate()
	}
	if err != nil {
		e.logger.Warn("detail enrichment failed, ranking without distance",
			"provider_id", c.ProviderID,
			"error", err,
		)
		e.metrics.EnrichmentFailures.Inc()
		return result
	}

	if detail.Name != "" {
		result.Name = detail.Name
	}
	if detail.Address != "" {
		result.Address = detail.Address
	}
	result.Coordinate = detail.Coordinate.Ptr()
	if ref != nil && ref.Validate() == nil {
		d := domain.DistanceMeters(*ref, detail.Coordinate)
		result.DistanceMeters = &d
	}
	return result
}

// withRetry repeats fn on provider failures with exponential backoff on the
// engine clock. Context errors are returned immediately.
func withRetry[T any](ctx context.Context, e *Engine, op string, fn func(context.Context) (T, error)) (T, error) {
	backoff := e.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		out, err := fn(ctx)
		if err == nil || attempt >= e.cfg.Retries || !errors.Is(err, domain.ErrProvider) || ctx.Err() != nil {
			return out, err
		}
		e.logger.Warn("provider call failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		if !sleepWithContext(ctx, e.clock, backoff) {
			return out, err
		}
		backoff = nextBackoff(backoff, e.cfg.MaxRetryBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
