package coverage_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/towers"
)

func signal(dbm float64) *float64 {
	return &dbm
}

func towerSet(n int, avg *float64) []towers.Tower {
	ts := make([]towers.Tower, n)
	for i := range ts {
		ts[i] = towers.Tower{ID: "t", Lat: 42.3, Lon: -71.1, Radio: towers.RadioLTE, AverageSignal: avg}
	}
	return ts
}

func TestScoreEmptySet(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{})

	assert.Equal(t, 0.0, s.Score(nil))
	assert.Equal(t, 0.0, s.Score([]towers.Tower{}))
}

func TestScoreKnownValues(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{})

	tests := []struct {
		name string
		ts   []towers.Tower
		want float64
	}{
		{
			// Strong signal, a third of target density: 4.0 + 0.33.
			name: "five strong towers",
			ts:   towerSet(5, signal(-70)),
			want: 4.3,
		},
		{
			name: "full density strong signal",
			ts:   towerSet(15, signal(-70)),
			want: 5.0,
		},
		{
			// Density saturates at the target count.
			name: "density clamps above target",
			ts:   towerSet(40, signal(-70)),
			want: 5.0,
		},
		{
			name: "full density weak signal",
			ts:   towerSet(15, signal(-110)),
			want: 1.0,
		},
		{
			name: "single strong tower",
			ts:   towerSet(1, signal(-70)),
			want: 4.1,
		},
		{
			name: "signal clamps above band",
			ts:   towerSet(10, signal(-50)),
			want: 4.7,
		},
		{
			name: "signal clamps below band",
			ts:   towerSet(10, signal(-130)),
			want: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.ts), 0.001)
		})
	}
}

func TestScoreMissingSignalPenalized(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{})

	// Towers without a sample count toward density but score as weak.
	got := s.Score(towerSet(3, nil))
	assert.InDelta(t, 0.2, got, 0.001)

	// A non-finite sample is treated the same as a missing one.
	nan := math.NaN()
	assert.InDelta(t, s.Score(towerSet(1, nil)), s.Score(towerSet(1, &nan)), 0.001)
}

func TestScoreMonotonicInSignal(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{})

	prev := -1.0
	for dbm := -120.0; dbm <= -60; dbm += 5 {
		got := s.Score(towerSet(8, signal(dbm)))
		assert.GreaterOrEqual(t, got, prev, "score dropped at %.0f dBm", dbm)
		prev = got
	}
}

func TestScoreMonotonicInDensity(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{})

	prev := -1.0
	for n := 1; n <= 20; n++ {
		got := s.Score(towerSet(n, signal(-90)))
		assert.GreaterOrEqual(t, got, prev, "score dropped at %d towers", n)
		prev = got
	}
}

func TestScoreBounds(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{})

	extremes := [][]towers.Tower{
		towerSet(1, signal(-200)),
		towerSet(100, signal(0.1)),
		towerSet(100, nil),
	}
	for _, ts := range extremes {
		got := s.Score(ts)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 5.0)
	}
}

func TestScoreCustomConfig(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{
		BandFloorDbm:  -100,
		BandCeilDbm:   -60,
		DensityTarget: 10,
	})

	// -60 tops the custom band, 10 towers fill the custom density.
	assert.InDelta(t, 5.0, s.Score(towerSet(10, signal(-60))), 0.001)
}

func TestScoreCorrelated(t *testing.T) {
	s := coverage.NewScorer(coverage.ScoreConfig{})

	cts := []coverage.CorrelatedTower{
		{Tower: towers.Tower{ID: "a", AverageSignal: signal(-70)}, DistanceToRouteMeters: 120, PositionAlongRoute: 0.1},
		{Tower: towers.Tower{ID: "b", AverageSignal: signal(-70)}, DistanceToRouteMeters: 800, PositionAlongRoute: 0.9},
	}

	assert.Equal(t, s.Score(towerSet(2, signal(-70))), s.ScoreCorrelated(cts))
	assert.Equal(t, 0.0, s.ScoreCorrelated(nil))
}
