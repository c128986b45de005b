package coverage

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/towers"
)

// metersPerDegree approximates one degree of latitude, used only to pad
// the bounding-box prefilter. The padding is deliberately generous; the
// per-tower distance check does the precise work.
const metersPerDegree = 111000.0

// CorrelatorConfig holds the correlation settings.
type CorrelatorConfig struct {
	// Projector maps route segments to the plane for closest-point
	// computation. Required.
	Projector geo.Projector

	// MaxDistanceMeters is the corridor half-width: towers farther from
	// the route than this are dropped. Default: 1500
	MaxDistanceMeters float64

	// Logger for skip diagnostics. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// Correlator matches towers against route geometry. Safe for concurrent
// use.
type Correlator struct {
	projector   geo.Projector
	maxDistance float64
	logger      zerolog.Logger
}

// NewCorrelator creates a correlator, filling zero config fields with
// defaults.
func NewCorrelator(cfg CorrelatorConfig) *Correlator {
	if cfg.MaxDistanceMeters <= 0 {
		cfg.MaxDistanceMeters = 1500
	}
	return &Correlator{
		projector:   cfg.Projector,
		maxDistance: cfg.MaxDistanceMeters,
		logger:      cfg.Logger,
	}
}

// Correlate finds the towers within the configured corridor of the route
// and annotates each with its distance to the route and its position
// along it, sorted by position. A route with fewer than two points or
// zero length yields no towers.
func (c *Correlator) Correlate(ts []towers.Tower, route []geo.Point) []CorrelatedTower {
	return c.CorrelateWithin(ts, route, c.maxDistance)
}

// CorrelateWithin is Correlate with a per-call corridor width. A
// non-positive width falls back to the configured one.
func (c *Correlator) CorrelateWithin(ts []towers.Tower, route []geo.Point, maxDistanceMeters float64) []CorrelatedTower {
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = c.maxDistance
	}
	if len(route) < 2 {
		return nil
	}

	// Cumulative length up to each vertex, so a closest point on segment
	// i can be placed along the whole route in constant time.
	cum := make([]float64, len(route))
	for i := 1; i < len(route); i++ {
		cum[i] = cum[i-1] + geo.HaversineMeters(route[i-1], route[i])
	}
	total := cum[len(route)-1]
	if total <= 0 {
		return nil
	}

	pad := maxDistanceMeters / metersPerDegree * 1.5
	box := geo.BoundsOf(route).Pad(pad)

	var skippedTowers, prefiltered int
	out := make([]CorrelatedTower, 0, len(ts))
	for _, t := range ts {
		loc := t.Location()
		if !loc.Finite() {
			skippedTowers++
			continue
		}
		if !box.Contains(loc) {
			prefiltered++
			continue
		}

		best := math.Inf(1)
		bestAlong := 0.0
		for i := 1; i < len(route); i++ {
			closest, ok := geo.ClosestRoutePoint(c.projector, loc, route[i-1], route[i])
			if !ok {
				continue
			}
			d := geo.HaversineMeters(loc, closest)
			if d < best {
				best = d
				bestAlong = cum[i-1] + geo.HaversineMeters(route[i-1], closest)
			}
		}
		if best > maxDistanceMeters {
			continue
		}

		position := bestAlong / total
		if position < 0 {
			position = 0
		} else if position > 1 {
			position = 1
		}
		out = append(out, CorrelatedTower{
			Tower:                 t,
			DistanceToRouteMeters: best,
			PositionAlongRoute:    position,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PositionAlongRoute < out[j].PositionAlongRoute
	})

	if skippedTowers > 0 {
		c.logger.Debug().
			Int("skipped_towers", skippedTowers).
			Msg("dropped towers with non-finite coordinates")
	}
	c.logger.Debug().
		Int("towers_in", len(ts)).
		Int("towers_out", len(out)).
		Int("prefiltered", prefiltered).
		Float64("max_distance_m", maxDistanceMeters).
		Msg("correlated towers with route")

	return out
}
