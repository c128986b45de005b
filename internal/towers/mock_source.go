package towers

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
)

// MockSourceConfig holds configuration for the mock tower generator.
type MockSourceConfig struct {
	// Seed makes generation reproducible. Default: 1
	Seed int64

	// Logger for generation events. Default: no-op
	Logger zerolog.Logger
}

// MockSource generates plausible towers for any queried region. It backs
// development setups and acts as the fallback when no dataset file is
// configured. Generation is deterministic: the same bounds with the same
// seed always produce the same towers.
type MockSource struct {
	seed   int64
	logger zerolog.Logger
}

// NewMockSource creates a mock tower source.
func NewMockSource(cfg MockSourceConfig) *MockSource {
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	return &MockSource{seed: seed, logger: cfg.Logger}
}

// Name identifies the source in logs and response metadata.
func (s *MockSource) Name() string {
	return "mock"
}

// TowersInBounds generates 30-80 towers spread over the box. A degenerate
// box (zero width or height) yields an empty result.
func (s *MockSource) TowersInBounds(ctx context.Context, bounds geo.BoundingBox) ([]Tower, error) {
	if !bounds.Valid() {
		return nil, ErrInvalidBounds
	}

	latRange := bounds.MaxLat - bounds.MinLat
	lonRange := bounds.MaxLon - bounds.MinLon
	if latRange <= 0 || lonRange <= 0 {
		s.logger.Warn().
			Float64("lat_range", latRange).
			Float64("lon_range", lonRange).
			Msg("degenerate bounding box, no mock towers generated")
		return nil, nil
	}

	rng := rand.New(rand.NewSource(s.regionSeed(bounds)))
	count := 30 + rng.Intn(51)

	// Weighted toward the technologies that dominate real deployments.
	radios := []string{RadioLTE, RadioLTE, RadioLTE, RadioNR, RadioNR, RadioUMTS, RadioGSM}

	now := time.Now().Unix()
	generated := make([]Tower, 0, count)
	for i := 0; i < count; i++ {
		radio := radios[rng.Intn(len(radios))]

		rangeMeters := 1000 + rng.Intn(4001)
		if radio == RadioNR {
			rangeMeters = 500 + rng.Intn(1501)
		}

		signal := float64(-115 + rng.Intn(51))

		generated = append(generated, Tower{
			ID:            fmt.Sprintf("mock_%d", i),
			Lat:           bounds.MinLat + rng.Float64()*latRange,
			Lon:           bounds.MinLon + rng.Float64()*lonRange,
			Radio:         radio,
			MCC:           310,
			Net:           10 + rng.Intn(401),
			Area:          1000 + rng.Intn(59001),
			Cell:          10000 + rng.Intn(990000),
			RangeMeters:   float64(rangeMeters),
			AverageSignal: &signal,
			Samples:       1 + rng.Intn(50),
			UpdatedEpoch:  now - int64(3600+rng.Intn(86400*30-3600)),
		})
	}

	s.logger.Debug().Int("towers", len(generated)).Msg("generated mock towers")
	return generated, nil
}

// regionSeed folds the box coordinates into the base seed so distinct
// regions get distinct but stable tower layouts.
func (s *MockSource) regionSeed(bounds geo.BoundingBox) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, f := range []float64{bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon} {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	return s.seed ^ int64(h.Sum64())
}
