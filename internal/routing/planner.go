package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/towers"
)

// RouteCandidate is one alternative returned by a directions provider.
type RouteCandidate struct {
	Geometry        []geo.Point
	DistanceMeters  float64
	DurationSeconds float64
	AscendMeters    float64
	DescendMeters   float64
	Steps           []Step
	Snapped         []geo.Point // waypoints snapped onto the road network
}

// DirectionsProvider fetches route alternatives between two points.
type DirectionsProvider interface {
	FetchAlternatives(ctx context.Context, start, end geo.Point, maxAlternatives int) ([]RouteCandidate, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// PlannerConfig holds configuration for the variant planner.
type PlannerConfig struct {
	// Directions fetches route alternatives. Required.
	Directions DirectionsProvider

	// Towers serves the cell dataset. Required.
	Towers *towers.Service

	// Correlator matches towers against geometry. Required.
	Correlator *coverage.Correlator

	// Scorer computes the display signal score. Required.
	Scorer *coverage.Scorer

	// MaxAlternatives requested from the provider (default: 5).
	MaxAlternatives int

	// SelectionDistanceMeters is the corridor used when ranking
	// alternatives by signal (default: 2500).
	SelectionDistanceMeters float64

	// DisplayDistanceMeters is the corridor for the towers attached to
	// the returned variant (default: 1500).
	DisplayDistanceMeters float64

	// EmptySignalDbm ranks an alternative with no towers in its corridor
	// (default: -120, below any observed signal).
	EmptySignalDbm float64

	// MissingSignalDbm substitutes for towers without a signal sample
	// (default: -110).
	MissingSignalDbm float64

	// BoundsPaddingDegrees pads the tower fetch box around the combined
	// alternatives (default: 0.1).
	BoundsPaddingDegrees float64

	// Logger for planner operations.
	Logger zerolog.Logger
}

// Planner computes route variants by ranking provider alternatives
// against the cell dataset. It implements VariantProvider. Each call
// owns its tower slice; nothing is cached across computations.
type Planner struct {
	directions DirectionsProvider
	towers     *towers.Service
	correlator *coverage.Correlator
	scorer     *coverage.Scorer

	maxAlternatives int
	selectionDist   float64
	displayDist     float64
	emptySignal     float64
	missingSignal   float64
	boundsPadding   float64
	logger          zerolog.Logger
}

// NewPlanner creates a planner, filling zero config fields with defaults.
func NewPlanner(cfg PlannerConfig) *Planner {
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = 5
	}
	if cfg.SelectionDistanceMeters <= 0 {
		cfg.SelectionDistanceMeters = 2500
	}
	if cfg.DisplayDistanceMeters <= 0 {
		cfg.DisplayDistanceMeters = 1500
	}
	if cfg.EmptySignalDbm == 0 {
		cfg.EmptySignalDbm = -120
	}
	if cfg.MissingSignalDbm == 0 {
		cfg.MissingSignalDbm = -110
	}
	if cfg.BoundsPaddingDegrees <= 0 {
		cfg.BoundsPaddingDegrees = 0.1
	}

	return &Planner{
		directions:      cfg.Directions,
		towers:          cfg.Towers,
		correlator:      cfg.Correlator,
		scorer:          cfg.Scorer,
		maxAlternatives: cfg.MaxAlternatives,
		selectionDist:   cfg.SelectionDistanceMeters,
		displayDist:     cfg.DisplayDistanceMeters,
		emptySignal:     cfg.EmptySignalDbm,
		missingSignal:   cfg.MissingSignalDbm,
		boundsPadding:   cfg.BoundsPaddingDegrees,
		logger:          cfg.Logger,
	}
}

// Name returns the underlying directions provider identifier.
func (p *Planner) Name() string {
	return p.directions.Name()
}

// ComputeVariant fetches route alternatives, ranks them for the
// requested kind, and returns the chosen one with its display towers and
// signal score attached. The per-kind selection is deterministic, so
// concurrent calls for different kinds agree on which alternative each
// kind owns.
func (p *Planner) ComputeVariant(ctx context.Context, req VariantRequest) (*Variant, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown route kind %q", ErrInvalidInput, req.Kind)
	}

	cands, err := p.directions.FetchAlternatives(ctx, req.Start, req.End, p.maxAlternatives)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, &Error{
			Provider: p.directions.Name(),
			Code:     "NO_ROUTE",
			Message:  "provider returned no route alternatives",
			Err:      ErrNoRoute,
		}
	}

	ts := p.fetchTowers(ctx, cands)
	selection := p.selectCandidates(cands, ts)

	chosen := cands[selection[req.Kind]]
	display := p.correlator.CorrelateWithin(ts, chosen.Geometry, p.displayDist)

	p.logger.Debug().
		Str("kind", string(req.Kind)).
		Int("alternatives", len(cands)).
		Int("chosen_index", selection[req.Kind]).
		Int("display_towers", len(display)).
		Msg("selected route variant")

	return &Variant{
		Kind:            req.Kind,
		Geometry:        chosen.Geometry,
		DistanceMeters:  chosen.DistanceMeters,
		DurationSeconds: chosen.DurationSeconds,
		AscendMeters:    chosen.AscendMeters,
		DescendMeters:   chosen.DescendMeters,
		Steps:           chosen.Steps,
		Snapped:         chosen.Snapped,
		Towers:          display,
		SignalScore:     p.scorer.ScoreCorrelated(display),
		Provider:        p.directions.Name(),
		ComputedAt:      time.Now(),
	}, nil
}

// fetchTowers loads the towers around the combined alternatives. Tower
// outages degrade the ranking to travel time instead of failing the
// route computation.
func (p *Planner) fetchTowers(ctx context.Context, cands []RouteCandidate) []towers.Tower {
	var all []geo.Point
	for _, c := range cands {
		all = append(all, c.Geometry...)
	}
	box := geo.BoundsOf(all).Pad(p.boundsPadding)
	if !box.Valid() {
		return nil
	}

	res, err := p.towers.WithinBounds(ctx, box)
	if err != nil {
		if !errors.Is(err, towers.ErrNoData) {
			p.logger.Warn().Err(err).Msg("tower fetch failed, ranking by travel time only")
		}
		return nil
	}
	return res.Towers
}

// selectCandidates assigns every kind an alternative index in one pass.
// Kinds are resolved in fixed order so the assignment does not depend on
// which kind asked; the chosen set gives later kinds a nudge toward
// unused alternatives on ties.
func (p *Planner) selectCandidates(cands []RouteCandidate, ts []towers.Tower) map[Kind]int {
	n := len(cands)

	durations := make([]float64, n)
	signals := make([]float64, n)
	for i, c := range cands {
		durations[i] = c.DurationSeconds
		along := p.correlator.CorrelateWithin(ts, c.Geometry, p.selectionDist)
		signals[i] = p.averageSignal(along)
	}

	normDuration := normalizeInverted(durations)
	normSignal := normalize(signals)

	chosen := make(map[int]bool, 3)
	selection := make(map[Kind]int, 3)
	for _, k := range Kinds() {
		var metric func(int) float64
		switch k {
		case KindFastest:
			metric = func(i int) float64 { return -durations[i] }
		case KindCellCoverage:
			metric = func(i int) float64 { return signals[i] }
		default:
			metric = func(i int) float64 { return 0.5*normDuration[i] + 0.5*normSignal[i] }
		}
		idx := pickBest(n, metric, chosen)
		selection[k] = idx
		chosen[idx] = true
	}
	return selection
}

// averageSignal reduces a correlation to a ranking signal in dBm.
func (p *Planner) averageSignal(cts []coverage.CorrelatedTower) float64 {
	if len(cts) == 0 {
		return p.emptySignal
	}

	var sum float64
	for _, ct := range cts {
		signal := p.missingSignal
		if ct.AverageSignal != nil && !math.IsNaN(*ct.AverageSignal) && !math.IsInf(*ct.AverageSignal, 0) {
			signal = *ct.AverageSignal
		}
		sum += signal
	}
	return sum / float64(len(cts))
}

// selectionEpsilon bounds float noise when comparing ranking metrics.
const selectionEpsilon = 1e-9

// pickBest returns the index maximizing metric. Indices within epsilon
// of the maximum tie; ties prefer an index not already chosen, then the
// lowest index.
func pickBest(n int, metric func(int) float64, chosen map[int]bool) int {
	best := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := metric(i); v > best {
			best = v
		}
	}

	tieFallback := -1
	for i := 0; i < n; i++ {
		if metric(i) < best-selectionEpsilon {
			continue
		}
		if !chosen[i] {
			return i
		}
		if tieFallback < 0 {
			tieFallback = i
		}
	}
	return tieFallback
}

// normalize min-max scales values to [0, 1]; a degenerate range maps
// everything to 1.
func normalize(vals []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := make([]float64, len(vals))
	span := hi - lo
	for i, v := range vals {
		if span <= 0 {
			out[i] = 1
		} else {
			out[i] = (v - lo) / span
		}
	}
	return out
}

// normalizeInverted is normalize with the scale flipped, so the lowest
// input scores 1.
func normalizeInverted(vals []float64) []float64 {
	out := normalize(vals)
	for i, v := range out {
		out[i] = 1 - v
	}
	return out
}
