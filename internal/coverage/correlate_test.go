package coverage_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/towers"
)

func tower(id string, lat, lon float64) towers.Tower {
	return towers.Tower{ID: id, Lat: lat, Lon: lon, Radio: towers.RadioLTE, AverageSignal: signal(-85)}
}

func newCorrelator(t *testing.T) *coverage.Correlator {
	t.Helper()
	return coverage.NewCorrelator(coverage.CorrelatorConfig{Projector: geo.NewMercatorProjector()})
}

// equatorRoute runs due east at the equator: 0 -> 0.02 -> 0.04 degrees of
// longitude, roughly 2.2 km per segment.
func equatorRoute() []geo.Point {
	return []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.02}, {Lat: 0, Lon: 0.04}}
}

func TestCorrelateDistances(t *testing.T) {
	c := newCorrelator(t)

	// Perpendicular offsets north of the route midpoint. 0.015 degrees of
	// latitude is ~1668 m, beyond the default corridor.
	ts := []towers.Tower{
		tower("far", 0.015, 0.01),
		tower("near", 0.002, 0.01),
		tower("mid", 0.005, 0.01),
		tower("edge", 0.009, 0.01),
	}

	got := c.Correlate(ts, equatorRoute())
	require.Len(t, got, 3)

	byID := map[string]coverage.CorrelatedTower{}
	for _, ct := range got {
		byID[ct.ID] = ct
	}
	require.NotContains(t, byID, "far")

	assert.InDelta(t, 222.4, byID["near"].DistanceToRouteMeters, 1.0)
	assert.InDelta(t, 556.0, byID["mid"].DistanceToRouteMeters, 1.5)
	assert.InDelta(t, 1000.8, byID["edge"].DistanceToRouteMeters, 2.0)
}

func TestCorrelateTowerOnRoute(t *testing.T) {
	c := newCorrelator(t)

	got := c.Correlate([]towers.Tower{tower("on", 0, 0.01)}, equatorRoute())
	require.Len(t, got, 1)
	assert.InDelta(t, 0, got[0].DistanceToRouteMeters, 0.5)
}

func TestCorrelatePositionsOrdered(t *testing.T) {
	c := newCorrelator(t)

	// Shuffled input; output must come back sorted by position.
	ts := []towers.Tower{
		tower("end", 0.001, 0.04),
		tower("start", 0.001, 0),
		tower("mid", 0.001, 0.02),
	}

	got := c.Correlate(ts, equatorRoute())
	require.Len(t, got, 3)

	assert.Equal(t, "start", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "end", got[2].ID)

	assert.InDelta(t, 0.0, got[0].PositionAlongRoute, 0.01)
	assert.InDelta(t, 0.5, got[1].PositionAlongRoute, 0.01)
	assert.InDelta(t, 1.0, got[2].PositionAlongRoute, 0.01)

	for _, ct := range got {
		assert.GreaterOrEqual(t, ct.PositionAlongRoute, 0.0)
		assert.LessOrEqual(t, ct.PositionAlongRoute, 1.0)
	}
}

func TestCorrelateWithinWidensCorridor(t *testing.T) {
	c := newCorrelator(t)
	ts := []towers.Tower{tower("far", 0.015, 0.01)}

	assert.Empty(t, c.Correlate(ts, equatorRoute()))

	got := c.CorrelateWithin(ts, equatorRoute(), 2500)
	require.Len(t, got, 1)
	assert.InDelta(t, 1668, got[0].DistanceToRouteMeters, 2.0)
}

func TestCorrelateDegenerateRoutes(t *testing.T) {
	c := newCorrelator(t)
	ts := []towers.Tower{tower("a", 0.001, 0.01)}

	assert.Empty(t, c.Correlate(ts, nil))
	assert.Empty(t, c.Correlate(ts, []geo.Point{{Lat: 0, Lon: 0.01}}))

	// Two identical points: positive vertex count, zero length.
	same := []geo.Point{{Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0.01}}
	assert.Empty(t, c.Correlate(ts, same))
}

func TestCorrelateSkipsNonFiniteTower(t *testing.T) {
	c := newCorrelator(t)

	bad := tower("bad", math.NaN(), 0.01)
	ts := []towers.Tower{bad, tower("good", 0.002, 0.01)}

	got := c.Correlate(ts, equatorRoute())
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
}

func TestCorrelateDropsDistantTowers(t *testing.T) {
	c := newCorrelator(t)

	// Well outside the padded bounding box.
	ts := []towers.Tower{tower("away", 1.0, 0.02), tower("near", 0.001, 0.02)}

	got := c.Correlate(ts, equatorRoute())
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].ID)
}

// flakyProjector fails for points east of a longitude cutoff, simulating
// segments the projection cannot handle.
type flakyProjector struct {
	cutoffLon float64
}

func (f flakyProjector) Project(p geo.Point) (geo.Planar, bool) {
	if p.Lon >= f.cutoffLon {
		return geo.Planar{}, false
	}
	return geo.Planar{X: p.Lon, Y: p.Lat}, true
}

func (f flakyProjector) Unproject(pl geo.Planar) (geo.Point, bool) {
	return geo.Point{Lat: pl.Y, Lon: pl.X}, true
}

func TestCorrelateSkipsUnprojectableSegments(t *testing.T) {
	c := coverage.NewCorrelator(coverage.CorrelatorConfig{
		Projector: flakyProjector{cutoffLon: 0.03},
	})

	route := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0.02}, {Lat: 0, Lon: 0.04}}
	ts := []towers.Tower{
		// Only the unprojectable last segment passes nearby.
		tower("lost", 0.0005, 0.035),
		tower("kept", 0.0005, 0.015),
	}

	got := c.Correlate(ts, route)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].ID)
	assert.InDelta(t, 55.6, got[0].DistanceToRouteMeters, 1.0)
}
