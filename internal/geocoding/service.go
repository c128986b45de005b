package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
)

// DefaultCacheTTL is how long geocoding responses stay cached. Place data
// changes rarely; a day keeps repeat searches off the provider quota.
const DefaultCacheTTL = 24 * time.Hour

// ResponseCache stores serialized geocoding responses. The redis-backed
// implementation is used in production; tests supply their own.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a ResponseCache backed by redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a redis client as a response cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached value for key, ok=false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value under key with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider resolves requests. Required.
	Provider Provider

	// Cache stores responses across requests. Optional; nil disables
	// caching.
	Cache ResponseCache

	// CacheTTL overrides the default 24h response TTL.
	CacheTTL time.Duration

	// DefaultLimit caps forward results when the request leaves Limit
	// zero (default: 5).
	DefaultLimit int

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service validates geocoding requests, delegates to the provider, and
// caches responses. Cache failures are logged and the provider is asked
// directly; they never fail a lookup.
type Service struct {
	provider     Provider
	cache        ResponseCache
	cacheTTL     time.Duration
	defaultLimit int
	logger       zerolog.Logger
}

// NewService creates a geocoding service, filling zero config fields with
// defaults.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}

	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 5
	}

	return &Service{
		provider:     cfg.Provider,
		cache:        cfg.Cache,
		cacheTTL:     cacheTTL,
		defaultLimit: defaultLimit,
		logger:       cfg.Logger,
	}
}

// Forward finds places matching a text query.
func (s *Service) Forward(ctx context.Context, req ForwardRequest) ([]Place, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	if req.Limit <= 0 {
		req.Limit = s.defaultLimit
	}
	if req.Proximity != nil && !req.Proximity.Valid() {
		req.Proximity = nil
	}

	key := forwardCacheKey(req)
	if places, ok := s.cachedPlaces(ctx, key); ok {
		return places, nil
	}

	places, err := s.provider.Forward(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("forward geocoding %q: %w", req.Query, err)
	}

	s.storePlaces(ctx, key, places)
	s.logger.Debug().
		Str("query", req.Query).
		Int("results", len(places)).
		Str("provider", s.provider.Name()).
		Msg("forward geocoding served")
	return places, nil
}

// Reverse finds the places at a coordinate.
func (s *Service) Reverse(ctx context.Context, p geo.Point) ([]Place, error) {
	if !p.Valid() {
		return nil, ErrInvalidPoint
	}

	key := reverseCacheKey(p)
	if places, ok := s.cachedPlaces(ctx, key); ok {
		return places, nil
	}

	places, err := s.provider.Reverse(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding %.5f,%.5f: %w", p.Lat, p.Lon, err)
	}

	s.storePlaces(ctx, key, places)
	s.logger.Debug().
		Float64("lat", p.Lat).
		Float64("lon", p.Lon).
		Int("results", len(places)).
		Str("provider", s.provider.Name()).
		Msg("reverse geocoding served")
	return places, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

func (s *Service) cachedPlaces(ctx context.Context, key string) ([]Place, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("geocoding cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var places []Place
	if err := json.Unmarshal(raw, &places); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("discarding undecodable geocoding cache entry")
		return nil, false
	}

	s.logger.Debug().Str("cache_key", key).Msg("geocoding cache hit")
	return places, true
}

func (s *Service) storePlaces(ctx context.Context, key string, places []Place) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(places)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("geocoding cache write failed")
	}
}

// forwardCacheKey derives a cache key from the request shape. Proximity
// is quantized to two decimals (~1 km) so a drifting map center does not
// fragment the cache.
func forwardCacheKey(req ForwardRequest) string {
	prox := "-"
	if req.Proximity != nil {
		prox = fmt.Sprintf("%.2f,%.2f", req.Proximity.Lat, req.Proximity.Lon)
	}
	return fmt.Sprintf("geocode:fwd:%s:%d:%t:%s",
		strings.ToLower(req.Query), req.Limit, req.Autocomplete, prox)
}

// reverseCacheKey quantizes to five decimals, roughly a meter.
func reverseCacheKey(p geo.Point) string {
	return fmt.Sprintf("geocode:rev:%.5f,%.5f", p.Lat, p.Lon)
}
