// Package routing computes and manages route variants between two
// waypoints: the session state machine, the variant provider seam, and
// the error taxonomy shared with provider clients.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrInvalidInput indicates missing or out-of-range waypoints.
	ErrInvalidInput = errors.New("invalid routing input")
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidAPIKey indicates the provider rejected the configured credentials.
	ErrInvalidAPIKey = errors.New("invalid routing API key")
	// ErrNoRoute indicates no drivable route exists between the given points.
	ErrNoRoute = errors.New("no route found between the given points")
	// ErrDistanceLimitExceeded indicates the requested route exceeds the
	// provider's distance ceiling.
	ErrDistanceLimitExceeded = errors.New("route distance limit exceeded")
	// ErrAllVariantsFailed indicates no route kind could be computed.
	ErrAllVariantsFailed = errors.New("all route variants failed")
	// ErrVariantUnavailable indicates the requested kind has no computed variant.
	ErrVariantUnavailable = errors.New("route variant unavailable")
)

// Kind identifies a route optimization target.
type Kind string

const (
	// KindFastest minimizes travel time.
	KindFastest Kind = "fastest"
	// KindCellCoverage maximizes cell signal along the route.
	KindCellCoverage Kind = "cell_coverage"
	// KindBalanced trades travel time against signal quality.
	KindBalanced Kind = "balanced"
)

// Kinds returns all kinds in fixed preference order.
func Kinds() []Kind {
	return []Kind{KindFastest, KindCellCoverage, KindBalanced}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFastest, KindCellCoverage, KindBalanced:
		return true
	}
	return false
}

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown route kind %q", ErrInvalidInput, s)
	}
	return k, nil
}

// Status is the lifecycle state of a routing session.
type Status string

const (
	// StatusIdle means no computation has run or the session was reset.
	StatusIdle Status = "idle"
	// StatusComputing means variant requests are in flight.
	StatusComputing Status = "computing"
	// StatusReady means at least one variant is available.
	StatusReady Status = "ready"
	// StatusFailed means the last computation produced no variant.
	StatusFailed Status = "failed"
)

// Waypoint is a resolved location the user selected.
type Waypoint struct {
	Point geo.Point
	Label string // display name from geocoding, may be empty
}

// Valid reports whether the waypoint carries usable coordinates.
func (w Waypoint) Valid() bool {
	return w.Point.Finite() && w.Point.Valid()
}

// Step is one maneuver of a route.
type Step struct {
	Sign            int     // provider maneuver code (0 continue, -2/2 turns, 4 arrive, ...)
	Text            string  // human-readable instruction
	StreetName      string  // may be empty
	DistanceMeters  float64 // distance covered by this step
	DurationSeconds float64
	ExitNumber      int     // roundabout exit, 0 otherwise
	TurnAngle       float64 // radians, 0 when not provided

	// Anchor is the maneuver point, nil when the provider gave no
	// geometry for the step.
	Anchor *geo.Point

	// Segment is the slice of route geometry this step covers.
	Segment []geo.Point
}

// Variant is one computed route alternative for a kind.
type Variant struct {
	Kind            Kind
	Geometry        []geo.Point // full route geometry, ordered start to end
	DistanceMeters  float64
	DurationSeconds float64
	AscendMeters    float64
	DescendMeters   float64
	Steps           []Step

	// Snapped holds the start and end waypoints snapped onto the road
	// network, when the provider reports them.
	Snapped []geo.Point

	// Towers along the route within the display corridor, sorted by
	// position. SignalScore is the 0-5 coverage score over them.
	Towers      []coverage.CorrelatedTower
	SignalScore float64

	Provider   string
	ComputedAt time.Time
}

// VariantRequest asks a provider for one route variant.
type VariantRequest struct {
	Start geo.Point
	End   geo.Point
	Kind  Kind
}

// VariantProvider computes route variants. Implementations must honor
// context cancellation and are called concurrently, once per kind.
type VariantProvider interface {
	ComputeVariant(ctx context.Context, req VariantRequest) (*Variant, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Snapshot is a consistent read-only view of a session. Variant pointers
// are shared with the session and must not be mutated.
type Snapshot struct {
	Status     Status
	Start      Waypoint
	End        Waypoint
	Variants   map[Kind]*Variant // populated when Ready; failed kinds map to nil
	ActiveKind Kind
	Err        error // fatal outcome of the last computation, nil otherwise
	UpdatedAt  time.Time
}

// ActiveVariant returns the currently selected variant, nil unless the
// session is Ready.
func (s Snapshot) ActiveVariant() *Variant {
	if s.Status != StatusReady {
		return nil
	}
	return s.Variants[s.ActiveKind]
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
