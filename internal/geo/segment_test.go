package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellway/cellway/internal/geo"
)

func TestClosestPointOnSegment(t *testing.T) {
	a := geo.Planar{X: 0, Y: 0}
	b := geo.Planar{X: 10, Y: 0}

	tests := []struct {
		name string
		p    geo.Planar
		want geo.Planar
	}{
		{
			name: "perpendicular foot inside segment",
			p:    geo.Planar{X: 4, Y: 3},
			want: geo.Planar{X: 4, Y: 0},
		},
		{
			name: "before start clamps to first endpoint",
			p:    geo.Planar{X: -5, Y: 2},
			want: a,
		},
		{
			name: "past end clamps to second endpoint",
			p:    geo.Planar{X: 17, Y: -1},
			want: b,
		},
		{
			name: "point on the segment",
			p:    geo.Planar{X: 6, Y: 0},
			want: geo.Planar{X: 6, Y: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geo.ClosestPointOnSegment(tt.p, a, b)
			assert.InDelta(t, tt.want.X, got.X, 1e-12)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-12)
		})
	}
}

func TestClosestPointOnSegment_Diagonal(t *testing.T) {
	a := geo.Planar{X: 1, Y: 1}
	b := geo.Planar{X: 5, Y: 5}

	got := geo.ClosestPointOnSegment(geo.Planar{X: 4, Y: 2}, a, b)

	assert.InDelta(t, 3, got.X, 1e-12)
	assert.InDelta(t, 3, got.Y, 1e-12)
}

func TestClosestPointOnSegment_ZeroLength(t *testing.T) {
	a := geo.Planar{X: 2.5, Y: -3}

	got := geo.ClosestPointOnSegment(geo.Planar{X: 100, Y: 100}, a, a)

	assert.Equal(t, a, got, "degenerate segment yields its first endpoint")
}

func TestClosestRoutePoint(t *testing.T) {
	proj := geo.NewMercatorProjector()

	// East-west segment along a parallel; the closest point to a probe
	// north of its middle keeps the segment's latitude.
	a := geo.Point{Lat: 42.34, Lon: -71.10}
	b := geo.Point{Lat: 42.34, Lon: -71.06}
	p := geo.Point{Lat: 42.35, Lon: -71.08}

	got, ok := geo.ClosestRoutePoint(proj, p, a, b)
	require.True(t, ok)

	assert.InDelta(t, 42.34, got.Lat, 1e-6)
	assert.InDelta(t, -71.08, got.Lon, 1e-6)
}

func TestClosestRoutePoint_ClampsToEndpoint(t *testing.T) {
	proj := geo.NewMercatorProjector()

	a := geo.Point{Lat: 42.34, Lon: -71.10}
	b := geo.Point{Lat: 42.34, Lon: -71.06}
	p := geo.Point{Lat: 42.34, Lon: -70.90} // well east of b

	got, ok := geo.ClosestRoutePoint(proj, p, a, b)
	require.True(t, ok)

	assert.InDelta(t, b.Lat, got.Lat, 1e-9)
	assert.InDelta(t, b.Lon, got.Lon, 1e-9)
}

func TestClosestRoutePoint_ProjectionFailure(t *testing.T) {
	proj := geo.NewMercatorProjector()

	// A pole cannot be projected, so the whole segment is skipped.
	_, ok := geo.ClosestRoutePoint(proj,
		geo.Point{Lat: 90, Lon: 0},
		geo.Point{Lat: 42.34, Lon: -71.10},
		geo.Point{Lat: 42.34, Lon: -71.06})
	assert.False(t, ok)
}

func TestClosestPointOnSegment_ResultStaysOnSegment(t *testing.T) {
	a := geo.Planar{X: -3, Y: 7}
	b := geo.Planar{X: 9, Y: -2}

	probes := []geo.Planar{
		{X: -50, Y: -50},
		{X: 50, Y: 50},
		{X: 0, Y: 0},
		{X: 3, Y: 3},
	}

	for _, p := range probes {
		got := geo.ClosestPointOnSegment(p, a, b)

		minX, maxX := a.X, b.X
		if minX > maxX {
			minX, maxX = maxX, minX
		}
		minY, maxY := a.Y, b.Y
		if minY > maxY {
			minY, maxY = maxY, minY
		}

		assert.GreaterOrEqual(t, got.X, minX-1e-12)
		assert.LessOrEqual(t, got.X, maxX+1e-12)
		assert.GreaterOrEqual(t, got.Y, minY-1e-12)
		assert.LessOrEqual(t, got.Y, maxY+1e-12)
	}
}
