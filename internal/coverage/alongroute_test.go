package coverage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/towers"
)

type fixedSource struct {
	towers []towers.Tower
	err    error
	calls  int
}

func (f *fixedSource) TowersInBounds(ctx context.Context, b geo.BoundingBox) ([]towers.Tower, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []towers.Tower
	for _, t := range f.towers {
		if b.Contains(t.Location()) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fixedSource) Name() string { return "fixed" }

func TestAlongRoute(t *testing.T) {
	src := &fixedSource{towers: []towers.Tower{
		tower("near", 0.001, 0.01),
		tower("far", 0.05, 0.01),
	}}
	svc := towers.NewService(towers.ServiceConfig{Source: src})
	c := newCorrelator(t)

	got, err := coverage.AlongRoute(context.Background(), svc, c, equatorRoute(), 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, 1, src.calls)
}

func TestAlongRouteCapsResult(t *testing.T) {
	src := &fixedSource{}
	for i := 0; i < 50; i++ {
		src.towers = append(src.towers, tower(fmt.Sprintf("t%d", i), 0.001, 0.0008*float64(i)))
	}
	svc := towers.NewService(towers.ServiceConfig{Source: src})
	c := newCorrelator(t)

	got, err := coverage.AlongRoute(context.Background(), svc, c, equatorRoute(), 2500, 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestAlongRouteNoData(t *testing.T) {
	src := &fixedSource{err: towers.ErrNoData}
	svc := towers.NewService(towers.ServiceConfig{Source: src})
	c := newCorrelator(t)

	got, err := coverage.AlongRoute(context.Background(), svc, c, equatorRoute(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAlongRouteShortRoute(t *testing.T) {
	src := &fixedSource{towers: []towers.Tower{tower("a", 0.001, 0.01)}}
	svc := towers.NewService(towers.ServiceConfig{Source: src})
	c := newCorrelator(t)

	got, err := coverage.AlongRoute(context.Background(), svc, c, []geo.Point{{Lat: 0, Lon: 0}}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, src.calls)
}
