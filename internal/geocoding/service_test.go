package geocoding_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/geocoding"
)

// stubProvider returns canned places and counts calls.
type stubProvider struct {
	places       []geocoding.Place
	err          error
	forwardCalls int
	reverseCalls int
	lastForward  geocoding.ForwardRequest
}

func (p *stubProvider) Forward(ctx context.Context, req geocoding.ForwardRequest) ([]geocoding.Place, error) {
	p.forwardCalls++
	p.lastForward = req
	return p.places, p.err
}

func (p *stubProvider) Reverse(ctx context.Context, pt geo.Point) ([]geocoding.Place, error) {
	p.reverseCalls++
	return p.places, p.err
}

func (p *stubProvider) Name() string { return "stub" }

// fakeCache is an in-memory ResponseCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	val, ok := c.entries[key]
	return val, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.sets++
	return nil
}

var southStation = geocoding.Place{
	ID:        "poi.1",
	Name:      "South Station",
	PlaceName: "South Station, Boston, Massachusetts",
	Center:    geo.Point{Lat: 42.352271, Lon: -71.055242},
	Kinds:     []string{"poi"},
	Relevance: 0.96,
}

func TestService_Forward(t *testing.T) {
	provider := &stubProvider{places: []geocoding.Place{southStation}}
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: provider})

	places, err := service.Forward(context.Background(), geocoding.ForwardRequest{Query: "  south station  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 || places[0].Name != "South Station" {
		t.Fatalf("unexpected places: %+v", places)
	}

	if provider.lastForward.Query != "south station" {
		t.Errorf("expected trimmed query, got %q", provider.lastForward.Query)
	}
	if provider.lastForward.Limit != 5 {
		t.Errorf("expected default limit 5, got %d", provider.lastForward.Limit)
	}
}

func TestService_Forward_EmptyQuery(t *testing.T) {
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: &stubProvider{}})

	_, err := service.Forward(context.Background(), geocoding.ForwardRequest{Query: "   "})
	if !errors.Is(err, geocoding.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestService_Forward_DropsInvalidProximity(t *testing.T) {
	provider := &stubProvider{places: []geocoding.Place{southStation}}
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: provider})

	_, err := service.Forward(context.Background(), geocoding.ForwardRequest{
		Query:     "boston",
		Proximity: &geo.Point{Lat: 91.0, Lon: 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastForward.Proximity != nil {
		t.Error("expected invalid proximity to be dropped")
	}
}

func TestService_Forward_CachesResponses(t *testing.T) {
	provider := &stubProvider{places: []geocoding.Place{southStation}}
	cache := newFakeCache()
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: provider, Cache: cache})

	ctx := context.Background()
	req := geocoding.ForwardRequest{Query: "south station"}

	for i := 0; i < 3; i++ {
		places, err := service.Forward(ctx, req)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if len(places) != 1 || places[0].ID != "poi.1" {
			t.Fatalf("call %d: unexpected places: %+v", i, places)
		}
	}

	if provider.forwardCalls != 1 {
		t.Errorf("expected 1 provider call for repeated queries, got %d", provider.forwardCalls)
	}
	if cache.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.sets)
	}
}

func TestService_Forward_DistinctRequestsMissCache(t *testing.T) {
	provider := &stubProvider{places: []geocoding.Place{southStation}}
	cache := newFakeCache()
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: provider, Cache: cache})

	ctx := context.Background()
	if _, err := service.Forward(ctx, geocoding.ForwardRequest{Query: "boston"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Forward(ctx, geocoding.ForwardRequest{Query: "boston", Autocomplete: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.forwardCalls != 2 {
		t.Errorf("expected autocomplete flag to produce a distinct cache entry, got %d provider calls", provider.forwardCalls)
	}
}

func TestService_Forward_CacheFailuresFallThrough(t *testing.T) {
	provider := &stubProvider{places: []geocoding.Place{southStation}}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: provider, Cache: cache})

	places, err := service.Forward(context.Background(), geocoding.ForwardRequest{Query: "boston"})
	if err != nil {
		t.Fatalf("expected cache failure to fall through to provider, got %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(places))
	}
}

func TestService_Forward_ProviderError(t *testing.T) {
	wantErr := errors.New("provider down")
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: &stubProvider{err: wantErr}})

	_, err := service.Forward(context.Background(), geocoding.ForwardRequest{Query: "boston"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestService_Reverse(t *testing.T) {
	provider := &stubProvider{places: []geocoding.Place{southStation}}
	cache := newFakeCache()
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: provider, Cache: cache})

	ctx := context.Background()
	p := geo.Point{Lat: 42.352271, Lon: -71.055242}

	for i := 0; i < 2; i++ {
		places, err := service.Reverse(ctx, p)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if len(places) != 1 {
			t.Fatalf("call %d: expected 1 place, got %d", i, len(places))
		}
	}

	if provider.reverseCalls != 1 {
		t.Errorf("expected 1 provider call for repeated lookups, got %d", provider.reverseCalls)
	}
}

func TestService_Reverse_InvalidPoint(t *testing.T) {
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: &stubProvider{}})

	_, err := service.Reverse(context.Background(), geo.Point{Lat: 0, Lon: 181})
	if !errors.Is(err, geocoding.ErrInvalidPoint) {
		t.Fatalf("expected ErrInvalidPoint, got %v", err)
	}
}

func TestService_ProviderName(t *testing.T) {
	service := geocoding.NewService(geocoding.ServiceConfig{Provider: &stubProvider{}})
	if service.ProviderName() != "stub" {
		t.Errorf("unexpected provider name: %s", service.ProviderName())
	}
}
