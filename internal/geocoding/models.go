// Package geocoding resolves place names to coordinates and back. It
// feeds the waypoint picker: forward search with autocomplete while the
// user types, reverse lookup when they drop a pin on the map.
package geocoding

import (
	"context"
	"errors"

	"github.com/cellway/cellway/internal/geo"
)

// Sentinel errors for geocoding operations.
var (
	// ErrEmptyQuery indicates a forward request without a search string.
	ErrEmptyQuery = errors.New("geocoding query is empty")
	// ErrInvalidPoint indicates a reverse request with unusable coordinates.
	ErrInvalidPoint = errors.New("invalid geocoding point")
	// ErrProviderUnavailable indicates the geocoding provider is down or unreachable.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrInvalidAPIKey indicates the provider rejected the configured credentials.
	ErrInvalidAPIKey = errors.New("invalid geocoding API key")
)

// Place is one geocoding result.
type Place struct {
	// ID is the provider's identifier for the feature.
	ID string `json:"id"`
	// Name is the short display name ("South Station").
	Name string `json:"name"`
	// PlaceName is the full qualified name ("South Station, Boston, Massachusetts").
	PlaceName string `json:"placeName"`
	// Center is the representative point.
	Center geo.Point `json:"center"`
	// Kinds classifies the feature (address, poi, locality, ...).
	Kinds []string `json:"kinds,omitempty"`
	// Relevance is the provider's match confidence in [0, 1], 0 when unknown.
	Relevance float64 `json:"relevance,omitempty"`
}

// ForwardRequest is a text search for places.
type ForwardRequest struct {
	// Query is the search text. Required.
	Query string

	// Limit caps the number of results (default 5).
	Limit int

	// Autocomplete treats the query as a prefix while the user types.
	Autocomplete bool

	// Proximity biases results toward a point, usually the map center.
	Proximity *geo.Point
}

// Provider resolves geocoding requests against an external service.
type Provider interface {
	// Forward finds places matching a text query.
	Forward(ctx context.Context, req ForwardRequest) ([]Place, error)
	// Reverse finds the places at a coordinate.
	Reverse(ctx context.Context, p geo.Point) ([]Place, error)
	// Name identifies the provider for logging and metrics.
	Name() string
}
