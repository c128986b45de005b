package coverage

import "github.com/cellway/cellway/internal/towers"

// CorrelatedTower is a tower annotated with its geometric relation to a
// route.
type CorrelatedTower struct {
	towers.Tower

	// DistanceToRouteMeters is the great-circle distance from the tower
	// to the closest point on the route.
	DistanceToRouteMeters float64

	// PositionAlongRoute places that closest point as a fraction of the
	// total route length, in [0, 1].
	PositionAlongRoute float64
}

// SampleEvenly reduces a position-sorted tower slice to at most max
// entries by picking evenly spaced indices. It preserves order and
// returns the input unchanged when it already fits.
func SampleEvenly(cts []CorrelatedTower, max int) []CorrelatedTower {
	if max <= 0 || len(cts) <= max {
		return cts
	}

	out := make([]CorrelatedTower, 0, max)
	for i := 0; i < max; i++ {
		out = append(out, cts[i*len(cts)/max])
	}
	return out
}
