package towers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/towers"
)

type stubSource struct {
	name   string
	towers []towers.Tower
	err    error
	calls  int
}

func (s *stubSource) TowersInBounds(ctx context.Context, bounds geo.BoundingBox) ([]towers.Tower, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.towers, nil
}

func (s *stubSource) Name() string { return s.name }

func TestService_PrimaryServes(t *testing.T) {
	primary := &stubSource{name: "csv", towers: []towers.Tower{{ID: "a", Lat: 42.3, Lon: -71.1}}}
	fallback := &stubSource{name: "mock"}

	svc := towers.NewService(towers.ServiceConfig{Source: primary, Fallback: fallback})

	res, err := svc.WithinBounds(context.Background(), bostonBounds())
	require.NoError(t, err)

	assert.Equal(t, "csv", res.Source)
	assert.Len(t, res.Towers, 1)
	assert.Equal(t, 0, fallback.calls, "fallback should stay idle when primary serves")
	assert.False(t, res.FetchedAt.IsZero())
}

func TestService_FallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubSource{name: "csv", err: towers.ErrNoData}
	fallback := &stubSource{name: "mock", towers: []towers.Tower{{ID: "m", Lat: 42.3, Lon: -71.1}}}

	svc := towers.NewService(towers.ServiceConfig{Source: primary, Fallback: fallback})

	res, err := svc.WithinBounds(context.Background(), bostonBounds())
	require.NoError(t, err)

	assert.Equal(t, "mock", res.Source)
	assert.Len(t, res.Towers, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestService_NoFallbackPropagatesError(t *testing.T) {
	primary := &stubSource{name: "csv", err: towers.ErrNoData}

	svc := towers.NewService(towers.ServiceConfig{Source: primary})

	_, err := svc.WithinBounds(context.Background(), bostonBounds())
	assert.ErrorIs(t, err, towers.ErrNoData)
}

func TestService_BothSourcesFail(t *testing.T) {
	bothErr := errors.New("disk on fire")
	svc := towers.NewService(towers.ServiceConfig{
		Source:   &stubSource{name: "csv", err: towers.ErrNoData},
		Fallback: &stubSource{name: "mock", err: bothErr},
	})

	_, err := svc.WithinBounds(context.Background(), bostonBounds())
	assert.ErrorIs(t, err, bothErr)
}

func TestService_InvalidBounds(t *testing.T) {
	svc := towers.NewService(towers.ServiceConfig{Source: &stubSource{name: "csv"}})

	_, err := svc.WithinBounds(context.Background(), geo.BoundingBox{
		MinLat: 1, MinLon: 2, MaxLat: 0, MaxLon: 3,
	})
	assert.ErrorIs(t, err, towers.ErrInvalidBounds)
}
