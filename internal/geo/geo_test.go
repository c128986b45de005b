package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cellway/cellway/internal/geo"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      geo.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         geo.Point{Lat: 42.3601, Lon: -71.0589},
			b:         geo.Point{Lat: 42.3601, Lon: -71.0589},
			wantKm:    0,
			tolerance: 0.0001,
		},
		{
			name:      "one degree of latitude",
			a:         geo.Point{Lat: 0, Lon: 0},
			b:         geo.Point{Lat: 1, Lon: 0},
			wantKm:    111.195,
			tolerance: 0.001,
		},
		{
			name:      "Boston to New York",
			a:         geo.Point{Lat: 42.3601, Lon: -71.0589},
			b:         geo.Point{Lat: 40.7128, Lon: -74.0060},
			wantKm:    306,
			tolerance: 2,
		},
		{
			name:      "Paris to London",
			a:         geo.Point{Lat: 48.8566, Lon: 2.3522},
			b:         geo.Point{Lat: 51.5074, Lon: -0.1278},
			wantKm:    343.5,
			tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geo.HaversineKm(tt.a, tt.b)
			assert.InDelta(t, tt.wantKm, got, tt.tolerance)
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	a := geo.Point{Lat: 42.336687, Lon: -71.095762}
	b := geo.Point{Lat: 40.7128, Lon: -74.0060}

	assert.Equal(t, geo.HaversineKm(a, b), geo.HaversineKm(b, a))
}

func TestHaversineKm_NonFiniteInputFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		a, b geo.Point
	}{
		{
			name: "NaN latitude",
			a:    geo.Point{Lat: math.NaN(), Lon: -71.0},
			b:    geo.Point{Lat: 42.0, Lon: -71.0},
		},
		{
			name: "positive infinity longitude",
			a:    geo.Point{Lat: 42.0, Lon: -71.0},
			b:    geo.Point{Lat: 42.0, Lon: math.Inf(1)},
		},
		{
			name: "both malformed",
			a:    geo.Point{Lat: math.NaN(), Lon: math.NaN()},
			b:    geo.Point{Lat: math.Inf(-1), Lon: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geo.HaversineKm(tt.a, tt.b)
			assert.Equal(t, 0.0, got, "malformed input must yield 0, not NaN")
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestHaversineMeters(t *testing.T) {
	a := geo.Point{Lat: 0, Lon: 0}
	b := geo.Point{Lat: 1, Lon: 0}

	assert.InDelta(t, 111195, geo.HaversineMeters(a, b), 1)
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		name  string
		point geo.Point
		want  bool
	}{
		{"in range", geo.Point{Lat: 42.3, Lon: -71.1}, true},
		{"boundary north pole", geo.Point{Lat: 90, Lon: 0}, true},
		{"boundary antimeridian", geo.Point{Lat: 0, Lon: -180}, true},
		{"latitude out of range", geo.Point{Lat: 91, Lon: 0}, false},
		{"longitude out of range", geo.Point{Lat: 0, Lon: 180.5}, false},
		{"NaN latitude", geo.Point{Lat: math.NaN(), Lon: 0}, false},
		{"infinite longitude", geo.Point{Lat: 0, Lon: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.point.Valid())
		})
	}
}

func TestBoundsOf(t *testing.T) {
	points := []geo.Point{
		{Lat: 42.34, Lon: -71.10},
		{Lat: 42.36, Lon: -71.06},
		{Lat: 42.33, Lon: -71.08},
	}

	b := geo.BoundsOf(points)

	assert.Equal(t, 42.33, b.MinLat)
	assert.Equal(t, -71.10, b.MinLon)
	assert.Equal(t, 42.36, b.MaxLat)
	assert.Equal(t, -71.06, b.MaxLon)
}

func TestBoundsOf_Empty(t *testing.T) {
	assert.Equal(t, geo.BoundingBox{}, geo.BoundsOf(nil))
}

func TestBoundingBox_PadAndContains(t *testing.T) {
	b := geo.BoundingBox{MinLat: 42.33, MinLon: -71.10, MaxLat: 42.36, MaxLon: -71.06}
	padded := b.Pad(0.02)

	assert.InDelta(t, 42.31, padded.MinLat, 1e-9)
	assert.InDelta(t, -71.12, padded.MinLon, 1e-9)
	assert.InDelta(t, 42.38, padded.MaxLat, 1e-9)
	assert.InDelta(t, -71.04, padded.MaxLon, 1e-9)

	assert.True(t, padded.Contains(geo.Point{Lat: 42.37, Lon: -71.05}),
		"point inside padding should be contained")
	assert.False(t, b.Contains(geo.Point{Lat: 42.37, Lon: -71.05}),
		"same point is outside the unpadded box")
	assert.True(t, b.Contains(geo.Point{Lat: 42.33, Lon: -71.10}),
		"border counts as inside")
}

func TestBoundingBox_Valid(t *testing.T) {
	assert.True(t, geo.BoundingBox{MinLat: 1, MinLon: 1, MaxLat: 2, MaxLon: 2}.Valid())
	assert.False(t, geo.BoundingBox{MinLat: 3, MinLon: 1, MaxLat: 2, MaxLon: 2}.Valid(),
		"inverted latitudes are invalid")
	assert.False(t, geo.BoundingBox{MinLat: math.NaN(), MaxLat: 2, MinLon: 1, MaxLon: 2}.Valid())
}

func TestBoundingBox_Center(t *testing.T) {
	b := geo.BoundingBox{MinLat: 42.0, MinLon: -72.0, MaxLat: 43.0, MaxLon: -71.0}
	c := b.Center()

	assert.InDelta(t, 42.5, c.Lat, 1e-9)
	assert.InDelta(t, -71.5, c.Lon, 1e-9)
}
