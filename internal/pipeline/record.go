package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/venue-discovery/internal/domain"
)

// SearchRecord summarises one settled search for analytics.
type SearchRecord struct {
	ID           string             `json:"id"`
	Query        string             `json:"query"`
	Sport        bool               `json:"sport"`
	Mode         domain.SearchMode  `json:"mode"`
	ResultCount  int                `json:"result_count"`
	WithDistance int                `json:"with_distance"`
	Error        string             `json:"error,omitempty"`
	Reference    *domain.Coordinate `json:"reference,omitempty"`
	RadiusMeters int                `json:"radius_meters"`
	DurationMs   int64              `json:"duration_ms"`
	Timestamp    time.Time          `json:"timestamp"`
}

// SearchRecorder persists or forwards search records. Errors are logged by
// the dispatcher and never affect search state.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, rec SearchRecord) error
}
