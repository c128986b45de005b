// Package worker provides background job processing for CellWay.
package worker

import (
	"time"

	"github.com/cellway/cellway/internal/geo"
)

// CoverageRegion is one geographic region the coverage report covers.
type CoverageRegion struct {
	// Name is the human-readable name of the region.
	Name string

	// Bounds is the region's bounding box.
	Bounds geo.BoundingBox

	// Priority determines report order (lower = higher priority).
	Priority int
}

// ReportConfig holds configuration for the coverage report job.
type ReportConfig struct {
	// Regions are the geographic regions to report on.
	// If empty, uses DefaultCoverageRegions.
	Regions []CoverageRegion

	// Concurrency is the number of concurrent region queries.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each region.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultReportConfig returns the default report configuration.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Regions:     DefaultCoverageRegions(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultCoverageRegions returns the default reporting regions for the
// Boston metro area, where the bundled tower dataset is densest.
func DefaultCoverageRegions() []CoverageRegion {
	return []CoverageRegion{
		{
			Name:     "Downtown",
			Priority: 1,
			Bounds:   geo.BoundingBox{MinLat: 42.350, MinLon: -71.065, MaxLat: 42.366, MaxLon: -71.050},
		},
		{
			Name:     "Back Bay",
			Priority: 1,
			Bounds:   geo.BoundingBox{MinLat: 42.344, MinLon: -71.090, MaxLat: 42.356, MaxLon: -71.068},
		},
		{
			Name:     "Fenway",
			Priority: 1,
			Bounds:   geo.BoundingBox{MinLat: 42.336, MinLon: -71.106, MaxLat: 42.350, MaxLon: -71.088},
		},
		{
			Name:     "Cambridge",
			Priority: 1,
			Bounds:   geo.BoundingBox{MinLat: 42.360, MinLon: -71.130, MaxLat: 42.378, MaxLon: -71.076},
		},
		{
			Name:     "Somerville",
			Priority: 2,
			Bounds:   geo.BoundingBox{MinLat: 42.376, MinLon: -71.125, MaxLat: 42.400, MaxLon: -71.080},
		},
		{
			Name:     "South Boston",
			Priority: 2,
			Bounds:   geo.BoundingBox{MinLat: 42.326, MinLon: -71.060, MaxLat: 42.344, MaxLon: -71.025},
		},
		{
			Name:     "Charlestown",
			Priority: 2,
			Bounds:   geo.BoundingBox{MinLat: 42.368, MinLon: -71.075, MaxLat: 42.388, MaxLon: -71.050},
		},
		{
			Name:     "Brookline",
			Priority: 3,
			Bounds:   geo.BoundingBox{MinLat: 42.320, MinLon: -71.145, MaxLat: 42.345, MaxLon: -71.105},
		},
		{
			Name:     "East Boston",
			Priority: 3,
			Bounds:   geo.BoundingBox{MinLat: 42.360, MinLon: -71.045, MaxLat: 42.386, MaxLon: -71.010},
		},
		{
			Name:     "Dorchester",
			Priority: 3,
			Bounds:   geo.BoundingBox{MinLat: 42.280, MinLon: -71.085, MaxLat: 42.320, MaxLon: -71.040},
		},
	}
}
