package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cellway/cellway/internal/geo"
)

// SessionConfig holds configuration for a routing session.
type SessionConfig struct {
	// Provider computes route variants. Required.
	Provider VariantProvider

	// PreferredKind is activated when its variant succeeds (default: cell_coverage).
	PreferredKind Kind

	// GuardDistanceKm fails a computation before any provider call when
	// the straight-line start-end distance exceeds it. Kept below the
	// provider's 900 km route ceiling so road-path inflation cannot push
	// a guarded request over the hard limit. Default: 800
	GuardDistanceKm float64

	// Logger for session transitions.
	Logger zerolog.Logger

	// Meter records computation outcomes. Optional.
	Meter metric.Meter
}

// Session owns the route computation lifecycle for one start/end pair:
// Idle -> Computing -> Ready or Failed, back to Idle on reset. At most
// one computation is in flight; starting a new one supersedes the
// previous one. Safe for concurrent use.
type Session struct {
	provider  VariantProvider
	preferred Kind
	guardKm   float64
	logger    zerolog.Logger
	metrics   *sessionMetrics

	mu         sync.RWMutex
	status     Status
	start, end Waypoint
	variants   map[Kind]*Variant
	activeKind Kind
	err        error
	updatedAt  time.Time
	attempt    *attempt
}

// attempt identifies one in-flight computation. Merge compares pointer
// identity against the session's current attempt, so a superseded
// computation can never mutate session state.
type attempt struct {
	cancel context.CancelFunc
}

// NewSession creates a session, filling zero config fields with defaults.
func NewSession(cfg SessionConfig) *Session {
	preferred := cfg.PreferredKind
	if preferred == "" {
		preferred = KindCellCoverage
	}

	guardKm := cfg.GuardDistanceKm
	if guardKm == 0 {
		guardKm = 800
	}

	return &Session{
		provider:  cfg.Provider,
		preferred: preferred,
		guardKm:   guardKm,
		logger:    cfg.Logger,
		metrics:   newSessionMetrics(cfg.Meter),
		status:    StatusIdle,
	}
}

// sessionMetrics holds the session's OpenTelemetry instruments. A nil
// receiver is a no-op, so sessions without a meter pay nothing.
type sessionMetrics struct {
	computations metric.Int64Counter
	duration     metric.Float64Histogram
}

func newSessionMetrics(meter metric.Meter) *sessionMetrics {
	if meter == nil {
		return nil
	}

	computations, err := meter.Int64Counter(
		"routing.session.computations",
		metric.WithDescription("Route variant computations by outcome"),
		metric.WithUnit("{computation}"),
	)
	if err != nil {
		return nil
	}

	duration, err := meter.Float64Histogram(
		"routing.session.computation.duration",
		metric.WithDescription("Duration of route variant computations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil
	}

	return &sessionMetrics{
		computations: computations,
		duration:     duration,
	}
}

func (m *sessionMetrics) record(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	ctx := context.Background()
	m.computations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// Start computes all route variants between start and end, superseding
// any in-flight computation. It blocks until the computation resolves
// and returns the resulting snapshot. A superseded computation returns
// the current snapshot with a nil error; cancellation is never a
// failure. Fatal outcomes (distance guard, all variants failed) are
// returned as errors and leave the session Failed with no variant data.
func (s *Session) Start(ctx context.Context, start, end Waypoint) (Snapshot, error) {
	if !start.Valid() || !end.Valid() {
		return s.Snapshot(), fmt.Errorf("%w: waypoints must carry finite in-range coordinates", ErrInvalidInput)
	}

	// Pre-flight guard: no provider call can succeed past the distance
	// ceiling, so fail before spending three round-trips.
	if distKm := geo.HaversineKm(start.Point, end.Point); distKm > s.guardKm {
		err := fmt.Errorf("%w: straight-line distance %.0f km exceeds %.0f km", ErrDistanceLimitExceeded, distKm, s.guardKm)

		s.mu.Lock()
		s.cancelAttemptLocked()
		s.start, s.end = start, end
		s.failLocked(err)
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.Warn().
			Float64("distance_km", distKm).
			Float64("guard_km", s.guardKm).
			Msg("route computation rejected by distance guard")
		s.metrics.record("guarded", 0)
		return snap, err
	}

	actx, cancel := context.WithCancel(ctx)
	att := &attempt{cancel: cancel}

	s.mu.Lock()
	s.cancelAttemptLocked()
	s.attempt = att
	s.status = StatusComputing
	s.start, s.end = start, end
	s.variants = nil
	s.activeKind = ""
	s.err = nil
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info().
		Float64("start_lat", start.Point.Lat).
		Float64("start_lon", start.Point.Lon).
		Float64("end_lat", end.Point.Lat).
		Float64("end_lon", end.Point.Lon).
		Str("provider", s.provider.Name()).
		Msg("computing route variants")

	began := time.Now()
	kinds := Kinds()
	outcomes := make([]variantOutcome, len(kinds))

	var wg sync.WaitGroup
	for i, k := range kinds {
		wg.Add(1)
		go func(i int, k Kind) {
			defer wg.Done()
			v, err := s.provider.ComputeVariant(actx, VariantRequest{
				Start: start.Point,
				End:   end.Point,
				Kind:  k,
			})
			outcomes[i] = variantOutcome{kind: k, variant: v, err: err}
		}(i, k)
	}
	wg.Wait()

	return s.merge(ctx, att, kinds, outcomes, time.Since(began))
}

type variantOutcome struct {
	kind    Kind
	variant *Variant
	err     error
}

// merge applies a completed computation to the session, unless the
// attempt was superseded in the meantime.
func (s *Session) merge(ctx context.Context, att *attempt, kinds []Kind, outcomes []variantOutcome, elapsed time.Duration) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt != att {
		// A newer Start owns the session now; these results are stale.
		s.logger.Debug().Msg("discarding superseded route computation")
		s.metrics.record("superseded", elapsed)
		return s.snapshotLocked(), nil
	}
	s.attempt = nil
	att.cancel()

	if ctx.Err() == context.Canceled {
		// The caller abandoned the computation; drop the results quietly.
		s.status = StatusIdle
		s.variants = nil
		s.activeKind = ""
		s.err = nil
		s.updatedAt = time.Now()
		s.logger.Debug().Msg("route computation cancelled by caller")
		s.metrics.record("cancelled", elapsed)
		return s.snapshotLocked(), nil
	}

	variants := make(map[Kind]*Variant, len(kinds))
	var (
		firstSuccess    Kind
		successes       int
		distanceLimited int
		failures        []error
	)
	for _, o := range outcomes {
		if o.err == nil && o.variant != nil {
			variants[o.kind] = o.variant
			successes++
			if firstSuccess == "" {
				firstSuccess = o.kind
			}
			continue
		}
		variants[o.kind] = nil
		if errors.Is(o.err, ErrDistanceLimitExceeded) {
			distanceLimited++
		}
		failures = append(failures, fmt.Errorf("%s: %w", o.kind, o.err))
		s.logger.Warn().Err(o.err).
			Str("kind", string(o.kind)).
			Msg("route variant failed")
	}

	if successes == 0 {
		var fatal error
		if distanceLimited == len(kinds) {
			// The provider itself rejected every kind on distance, which
			// is the guard outcome reached the expensive way.
			fatal = fmt.Errorf("%w: rejected by provider", ErrDistanceLimitExceeded)
		} else {
			fatal = fmt.Errorf("%w: %w", ErrAllVariantsFailed, errors.Join(failures...))
		}
		s.failLocked(fatal)
		s.logger.Error().Err(fatal).
			Dur("elapsed", elapsed).
			Msg("route computation failed for every kind")
		s.metrics.record("failed", elapsed)
		return s.snapshotLocked(), fatal
	}

	active := s.preferred
	if variants[active] == nil {
		active = firstSuccess
	}

	s.status = StatusReady
	s.variants = variants
	s.activeKind = active
	s.err = nil
	s.updatedAt = time.Now()

	s.logger.Info().
		Int("variants", successes).
		Str("active_kind", string(active)).
		Dur("elapsed", elapsed).
		Msg("route variants ready")
	s.metrics.record("ready", elapsed)
	return s.snapshotLocked(), nil
}

// Select switches the active variant. Valid only when the session is
// Ready and the kind's variant was computed; otherwise the session is
// left untouched.
func (s *Session) Select(kind Kind) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return s.snapshotLocked(), fmt.Errorf("%w: unknown route kind %q", ErrInvalidInput, kind)
	}
	if s.status != StatusReady || s.variants[kind] == nil {
		return s.snapshotLocked(), fmt.Errorf("%w: %s", ErrVariantUnavailable, kind)
	}

	s.activeKind = kind
	s.updatedAt = time.Now()
	return s.snapshotLocked(), nil
}

// Reset cancels any in-flight computation and returns the session to
// Idle with all state cleared.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAttemptLocked()
	s.status = StatusIdle
	s.start, s.end = Waypoint{}, Waypoint{}
	s.variants = nil
	s.activeKind = ""
	s.err = nil
	s.updatedAt = time.Now()
	return s.snapshotLocked()
}

// Restore synthesizes a Ready session from persisted variants without
// any provider call, used when loading a saved route.
func (s *Session) Restore(start, end Waypoint, variants map[Kind]*Variant, active Kind) (Snapshot, error) {
	if !start.Valid() || !end.Valid() {
		return s.Snapshot(), fmt.Errorf("%w: waypoints must carry finite in-range coordinates", ErrInvalidInput)
	}

	restored := make(map[Kind]*Variant, len(Kinds()))
	var firstPresent Kind
	for _, k := range Kinds() {
		v := variants[k]
		restored[k] = v
		if v != nil && firstPresent == "" {
			firstPresent = k
		}
	}
	if firstPresent == "" {
		return s.Snapshot(), fmt.Errorf("%w: no variants to restore", ErrInvalidInput)
	}
	if restored[active] == nil {
		active = firstPresent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAttemptLocked()
	s.status = StatusReady
	s.start, s.end = start, end
	s.variants = restored
	s.activeKind = active
	s.err = nil
	s.updatedAt = time.Now()

	s.logger.Info().
		Str("active_kind", string(active)).
		Msg("session restored from saved route")
	return s.snapshotLocked(), nil
}

// Snapshot returns a consistent read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:     s.status,
		Start:      s.start,
		End:        s.end,
		ActiveKind: s.activeKind,
		Err:        s.err,
		UpdatedAt:  s.updatedAt,
	}
	if s.variants != nil {
		snap.Variants = make(map[Kind]*Variant, len(s.variants))
		for k, v := range s.variants {
			snap.Variants[k] = v
		}
	}
	return snap
}

// failLocked records a fatal computation outcome. No variant data
// survives a fatal outcome, so a fresh Start always proceeds cleanly.
func (s *Session) failLocked(err error) {
	s.status = StatusFailed
	s.variants = nil
	s.activeKind = ""
	s.err = err
	s.updatedAt = time.Now()
}

func (s *Session) cancelAttemptLocked() {
	if s.attempt != nil {
		s.attempt.cancel()
		s.attempt = nil
	}
}
