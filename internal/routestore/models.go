// Package routestore persists a user's saved routes.
package routestore

import (
	"errors"
	"time"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/routing"
	"github.com/cellway/cellway/pkg/polyline"
)

// MaxSavedRoutesPerUser caps saved routes per user. Saving past the cap
// evicts the oldest route.
const MaxSavedRoutesPerUser = 3

// Repository errors.
var (
	ErrRouteNotFound = errors.New("saved route not found")
)

// Endpoint is a named end of a saved route.
type Endpoint struct {
	Name  string
	Point geo.Point
}

// SavedRoute is a route a user chose to keep.
type SavedRoute struct {
	ID              string
	UserID          string
	Origin          Endpoint
	Destination     Endpoint
	Kind            routing.Kind
	Geometry        []geo.Point
	DistanceMeters  float64
	DurationSeconds float64
	SignalScore     float64
	HasAlternatives bool
	ImageDataURL    *string
	CreatedAt       time.Time
}

// encodeGeometry packs route geometry as a polyline string for storage.
func encodeGeometry(points []geo.Point) string {
	coords := make([]polyline.LatLng, len(points))
	for i, p := range points {
		coords[i] = polyline.LatLng{Lat: p.Lat, Lon: p.Lon}
	}
	return polyline.Encode(coords)
}

// decodeGeometry unpacks a stored polyline string.
func decodeGeometry(encoded string) []geo.Point {
	coords := polyline.Decode(encoded)
	points := make([]geo.Point, len(coords))
	for i, c := range coords {
		points[i] = geo.Point{Lat: c.Lat, Lon: c.Lon}
	}
	return points
}
