// Package coverage reduces tower observations to route-level signal
// quality: a single 0-5 score over a tower set, and the geometric
// correlation of towers against a route polyline.
package coverage

import (
	"math"

	"github.com/cellway/cellway/internal/towers"
)

// ScoreConfig holds the signal scoring thresholds.
type ScoreConfig struct {
	// WeakSignalDbm substitutes for towers without a signal sample;
	// absence of data is penalized, not ignored. Default: -110
	WeakSignalDbm float64

	// BandFloorDbm and BandCeilDbm bound the normalization band.
	// Defaults: -110 and -70
	BandFloorDbm float64
	BandCeilDbm  float64

	// DensityTarget is the tower count treated as full density;
	// more towers add nothing. Default: 15
	DensityTarget int

	// SignalWeight and DensityWeight blend the two components.
	// Defaults: 0.8 and 0.2
	SignalWeight  float64
	DensityWeight float64
}

// DefaultScoreConfig returns the default scoring thresholds.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		WeakSignalDbm: -110,
		BandFloorDbm:  -110,
		BandCeilDbm:   -70,
		DensityTarget: 15,
		SignalWeight:  0.8,
		DensityWeight: 0.2,
	}
}

// Scorer computes signal quality scores. Pure and safe for concurrent use.
type Scorer struct {
	cfg ScoreConfig
}

// NewScorer creates a scorer, filling zero config fields with defaults.
func NewScorer(cfg ScoreConfig) *Scorer {
	def := DefaultScoreConfig()
	if cfg.WeakSignalDbm == 0 {
		cfg.WeakSignalDbm = def.WeakSignalDbm
	}
	if cfg.BandFloorDbm == 0 {
		cfg.BandFloorDbm = def.BandFloorDbm
	}
	if cfg.BandCeilDbm == 0 {
		cfg.BandCeilDbm = def.BandCeilDbm
	}
	if cfg.DensityTarget <= 0 {
		cfg.DensityTarget = def.DensityTarget
	}
	if cfg.SignalWeight == 0 {
		cfg.SignalWeight = def.SignalWeight
	}
	if cfg.DensityWeight == 0 {
		cfg.DensityWeight = def.DensityWeight
	}
	return &Scorer{cfg: cfg}
}

// Score reduces a tower set to a quality score in [0, 5] with one decimal
// of precision. An empty set scores 0.
func (s *Scorer) Score(ts []towers.Tower) float64 {
	if len(ts) == 0 {
		return 0
	}

	var sum float64
	for _, t := range ts {
		signal := s.cfg.WeakSignalDbm
		if t.AverageSignal != nil && isFinite(*t.AverageSignal) {
			signal = *t.AverageSignal
		}
		sum += signal
	}
	avg := sum / float64(len(ts))

	normalized := clamp01((avg - s.cfg.BandFloorDbm) / (s.cfg.BandCeilDbm - s.cfg.BandFloorDbm))
	density := clamp01(float64(len(ts)) / float64(s.cfg.DensityTarget))

	score := normalized*5*s.cfg.SignalWeight + density*5*s.cfg.DensityWeight
	score = math.Round(score*10) / 10

	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}

// ScoreCorrelated scores the towers behind a correlation result.
func (s *Scorer) ScoreCorrelated(cts []CorrelatedTower) float64 {
	if len(cts) == 0 {
		return 0
	}

	ts := make([]towers.Tower, len(cts))
	for i, ct := range cts {
		ts[i] = ct.Tower
	}
	return s.Score(ts)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
