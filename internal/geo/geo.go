// Package geo provides the geographic primitives shared across CellWay:
// points, bounding boxes, great-circle distance, and the planar map
// projection used by the tower correlation pipeline.
package geo

import (
	"math"

	"github.com/rs/zerolog"
)

// EarthRadiusKm is the mean Earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// Logger receives warnings about malformed coordinate input. Binaries may
// replace it at startup; the default discards everything.
var Logger = zerolog.Nop()

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether both coordinates are finite and within range.
func (p Point) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lon >= -180 && p.Lon <= 180
}

// Finite reports whether both coordinates are finite numbers. A point can
// be finite yet still out of range; Valid checks both.
func (p Point) Finite() bool {
	return isFinite(p.Lat) && isFinite(p.Lon)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// HaversineKm returns the great-circle distance between a and b in
// kilometers using the spherical law of haversines. Malformed input does
// not propagate: any non-finite coordinate yields 0 and a logged warning.
func HaversineKm(a, b Point) float64 {
	if !a.Finite() || !b.Finite() {
		Logger.Warn().
			Float64("lat1", a.Lat).
			Float64("lon1", a.Lon).
			Float64("lat2", b.Lat).
			Float64("lon2", b.Lon).
			Msg("haversine: non-finite coordinate")
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// HaversineMeters returns the great-circle distance between a and b in meters.
func HaversineMeters(a, b Point) float64 {
	return HaversineKm(a, b) * 1000
}

// BoundingBox is an axis-aligned geographic region in degrees.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// BoundsOf returns the tightest box containing all points. The zero box is
// returned for an empty slice.
func BoundsOf(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}

	b := BoundingBox{
		MinLat: points[0].Lat,
		MinLon: points[0].Lon,
		MaxLat: points[0].Lat,
		MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// Pad returns a copy of the box expanded by the given number of degrees on
// every side.
func (b BoundingBox) Pad(degrees float64) BoundingBox {
	return BoundingBox{
		MinLat: b.MinLat - degrees,
		MinLon: b.MinLon - degrees,
		MaxLat: b.MaxLat + degrees,
		MaxLon: b.MaxLon + degrees,
	}
}

// Contains reports whether the point lies inside the box, borders included.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Valid reports whether the box is finite and its minimums do not exceed
// its maximums.
func (b BoundingBox) Valid() bool {
	return isFinite(b.MinLat) && isFinite(b.MinLon) &&
		isFinite(b.MaxLat) && isFinite(b.MaxLon) &&
		b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Point {
	return Point{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}
