package geo

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

// maxMercatorLat is the latitude beyond which the Mercator plane cannot
// represent a point (the familiar web-map cutoff).
const maxMercatorLat = 85.05113

// Planar is a point on the projected map plane.
type Planar struct {
	X float64
	Y float64
}

// Projector converts between geographic and planar map coordinates.
// Implementations report failure with ok=false; callers skip the affected
// segment rather than abort the whole computation.
type Projector interface {
	// Project maps a geographic point onto the plane.
	Project(p Point) (Planar, bool)
	// Unproject maps a plane point back to geographic coordinates.
	Unproject(pl Planar) (Point, bool)
}

// MercatorProjector projects onto the spherical Mercator plane, the same
// plane web map tiles use. Longitude maps linearly onto X with the
// antimeridian at ±180 plane units; Y is the isometric latitude on the
// same scale.
type MercatorProjector struct {
	proj *s2.MercatorProjection
}

// NewMercatorProjector returns a ready-to-use Mercator projector.
func NewMercatorProjector() *MercatorProjector {
	return &MercatorProjector{proj: s2.NewMercatorProjection(180).(*s2.MercatorProjection)}
}

// Project maps a geographic point onto the Mercator plane. Non-finite
// coordinates and latitudes at or beyond the Mercator cutoff fail.
func (m *MercatorProjector) Project(p Point) (Planar, bool) {
	if !p.Finite() || math.Abs(p.Lat) >= maxMercatorLat {
		return Planar{}, false
	}

	pt := m.proj.FromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
	if !isFinite(pt.X) || !isFinite(pt.Y) {
		return Planar{}, false
	}
	return Planar{X: pt.X, Y: pt.Y}, true
}

// Unproject maps a plane point back to geographic coordinates.
func (m *MercatorProjector) Unproject(pl Planar) (Point, bool) {
	if !isFinite(pl.X) || !isFinite(pl.Y) {
		return Point{}, false
	}

	ll := m.proj.ToLatLng(r2.Point{X: pl.X, Y: pl.Y})
	p := Point{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
	if !p.Valid() {
		return Point{}, false
	}
	return p, true
}
