// Package http exposes the venue search API alongside health, readiness and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/search"
)

// VenueService is the search surface the API serves. *search.Engine satisfies it.
type VenueService interface {
	Search(ctx context.Context, req search.Request) ([]domain.VenueResult, error)
	Nearby(ctx context.Context, center domain.Coordinate, radiusMeters int) ([]domain.VenueResult, error)
	Resolve(ctx context.Context, candidate domain.SearchCandidate, ref *domain.Coordinate) (domain.VenueResult, bool)
	CheckReadiness(ctx context.Context) error
}

// Radii are the defaults applied when a request omits radius.
type Radii struct {
	Search int
	Nearby int
}

// Server exposes the venue API plus /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	venues     VenueService
	radii      Radii
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the venue and operational routes.
func NewServer(addr string, venues VenueService, radii Radii, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		venues: venues,
		radii:  radii,
		logger: logger,
	}

	mux.HandleFunc("GET /v1/venues/search", s.handleSearch)
	mux.HandleFunc("GET /v1/venues/nearby", s.handleNearby)
	mux.HandleFunc("GET /v1/venues/{id}", s.handleVenue)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(venues))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type resultsResponse struct {
	Query   string               `json:"query,omitempty"`
	Results []domain.VenueResult `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref, err := parseReference(q.Get("lat"), q.Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	radius, err := parseRadius(q.Get("radius"), s.radii.Search)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := s.venues.Search(r.Context(), search.Request{
		Query:        q.Get("q"),
		Reference:    ref,
		RadiusMeters: radius,
		Mode:         domain.ParseSearchMode(q.Get("mode")),
	})
	if err != nil {
		s.writeProviderError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Query: strings.TrimSpace(q.Get("q")), Results: results})
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	center, err := parseReference(q.Get("lat"), q.Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if center == nil {
		writeError(w, http.StatusBadRequest, errors.New("lat and lon are required"))
		return
	}
	radius, err := parseRadius(q.Get("radius"), s.radii.Nearby)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := s.venues.Nearby(r.Context(), *center, radius)
	if err != nil {
		s.writeProviderError(w, "nearby", err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Results: results})
}

func (s *Server) handleVenue(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ref, err := parseReference(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, ok := s.venues.Resolve(r.Context(), domain.SearchCandidate{ProviderID: id}, ref)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("venue %s could not be resolved", id))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeProviderError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrInvalidCoordinate) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.logger.Warn("venue request failed", "op", op, "error", err)
	writeError(w, http.StatusBadGateway, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker VenueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// parseReference returns nil when both values are empty.
func parseReference(latStr, lonStr string) (*domain.Coordinate, error) {
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errors.New("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon %q", lonStr)
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func parseRadius(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid radius %q: must be a positive integer", s)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
