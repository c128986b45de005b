package coverage

import (
	"context"
	"errors"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/towers"
)

const (
	// DefaultAlongRouteDistanceMeters is the corridor width for
	// along-route tower queries.
	DefaultAlongRouteDistanceMeters = 2500.0

	// DefaultAlongRouteLimit caps along-route results.
	DefaultAlongRouteLimit = 200
)

// AlongRoute fetches the towers around a route and correlates them with
// its geometry. The corridor width defaults to 2500 m and the result is
// capped at 200 towers by even sampling; pass non-positive values to use
// the defaults. The tower fetch covers the route bounding box padded to
// the corridor width.
func AlongRoute(ctx context.Context, svc *towers.Service, c *Correlator, route []geo.Point, maxDistanceMeters float64, limit int) ([]CorrelatedTower, error) {
	if len(route) < 2 {
		return nil, nil
	}
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = DefaultAlongRouteDistanceMeters
	}
	if limit <= 0 {
		limit = DefaultAlongRouteLimit
	}

	pad := maxDistanceMeters / metersPerDegree * 1.5
	box := geo.BoundsOf(route).Pad(pad)

	res, err := svc.WithinBounds(ctx, box)
	if errors.Is(err, towers.ErrNoData) {
		// A region without tower data degrades to an empty correlation,
		// not a failure.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cts := c.CorrelateWithin(res.Towers, route, maxDistanceMeters)
	return SampleEvenly(cts, limit), nil
}
