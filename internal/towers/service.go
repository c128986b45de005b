package towers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
)

// QueryResult is a bounds query outcome with its provenance.
type QueryResult struct {
	Towers    []Tower
	Source    string
	FetchedAt time.Time
}

// ServiceConfig holds configuration for the tower service.
type ServiceConfig struct {
	// Source is the primary tower source. Required.
	Source Source

	// Fallback serves queries when the primary source fails. Optional.
	Fallback Source

	// Logger for query events. Default: no-op
	Logger zerolog.Logger
}

// Service answers tower queries, falling back to a secondary source when
// the primary cannot serve (missing dataset, read failure). Every query
// returns a fresh slice; the service holds no tower state of its own.
type Service struct {
	source   Source
	fallback Source
	logger   zerolog.Logger
}

// NewService creates a tower service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		source:   cfg.Source,
		fallback: cfg.Fallback,
		logger:   cfg.Logger,
	}
}

// WithinBounds returns the towers inside the box together with the name of
// the source that actually served them.
func (s *Service) WithinBounds(ctx context.Context, bounds geo.BoundingBox) (*QueryResult, error) {
	if !bounds.Valid() {
		return nil, ErrInvalidBounds
	}

	ts, err := s.source.TowersInBounds(ctx, bounds)
	if err != nil {
		if s.fallback == nil {
			return nil, err
		}

		s.logger.Warn().
			Err(err).
			Str("source", s.source.Name()).
			Str("fallback", s.fallback.Name()).
			Msg("primary tower source failed, using fallback")

		ts, err = s.fallback.TowersInBounds(ctx, bounds)
		if err != nil {
			return nil, err
		}
		return s.result(ts, s.fallback.Name(), bounds), nil
	}

	return s.result(ts, s.source.Name(), bounds), nil
}

func (s *Service) result(ts []Tower, source string, bounds geo.BoundingBox) *QueryResult {
	s.logger.Info().
		Int("towers", len(ts)).
		Str("source", source).
		Float64("min_lat", bounds.MinLat).
		Float64("min_lon", bounds.MinLon).
		Float64("max_lat", bounds.MaxLat).
		Float64("max_lon", bounds.MaxLon).
		Msg("tower query served")

	return &QueryResult{
		Towers:    ts,
		Source:    source,
		FetchedAt: time.Now(),
	}
}
