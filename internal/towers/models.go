// Package towers provides cell-tower observation records and the sources
// that supply them: an OpenCelliD-style CSV dataset with a deterministic
// mock generator as fallback.
package towers

import (
	"context"
	"errors"

	"github.com/cellway/cellway/internal/geo"
)

// Sentinel errors for tower sources.
var (
	// ErrNoData indicates the source has no dataset loaded to query.
	ErrNoData = errors.New("tower source has no data")
	// ErrInvalidBounds indicates the queried bounding box is malformed.
	ErrInvalidBounds = errors.New("invalid bounding box")
)

// Radio technology labels as they appear in OpenCelliD exports.
const (
	RadioGSM  = "GSM"
	RadioUMTS = "UMTS"
	RadioLTE  = "LTE"
	RadioNR   = "5G"
)

// Tower is one observed cell tower. Records are read-only once ingested;
// optional fields are pointers and absence is interpreted downstream
// (the signal scorer penalizes missing signal data).
type Tower struct {
	ID    string
	Lat   float64
	Lon   float64
	Radio string
	MCC   int
	Net   int
	Area  int
	Cell  int

	// RangeMeters is the estimated coverage radius.
	RangeMeters float64
	// AverageSignal is the mean observed signal in dBm, nil when the
	// dataset has no sample for this tower.
	AverageSignal *float64
	// Samples is the number of observations behind AverageSignal.
	Samples int
	// UpdatedEpoch is the dataset's last-update time as a Unix timestamp.
	UpdatedEpoch int64
}

// Location returns the tower position as a geographic point.
func (t Tower) Location() geo.Point {
	return geo.Point{Lat: t.Lat, Lon: t.Lon}
}

// Source supplies tower records for a bounding box.
type Source interface {
	// TowersInBounds returns every known tower inside the box.
	TowersInBounds(ctx context.Context, bounds geo.BoundingBox) ([]Tower, error)
	// Name identifies the source for logging and response metadata.
	Name() string
}
