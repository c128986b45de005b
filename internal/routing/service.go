package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/provider/resilience"
)

// DirectionsCacheConfig holds configuration for the directions cache.
type DirectionsCacheConfig struct {
	// Directions is the provider to cache. Required.
	Directions DirectionsProvider

	// Logger for cache operations.
	Logger zerolog.Logger

	// CacheTTL is how long fetched alternatives stay fresh (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.001 ~ 110m).
	// Endpoints within the same grid cell share cached alternatives.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale alternatives on provider errors (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 5 minutes).
	CleanupInterval time.Duration

	// Metrics records cache hits and misses. Optional.
	Metrics *resilience.ProviderMetrics
}

// DirectionsCache caches route alternatives in front of a directions
// provider. It implements DirectionsProvider, so the planner sees cached
// and live fetches identically. Recomputing a session (new kind
// selection, supersede-and-retry) reuses the same alternatives instead
// of paying three more provider round-trips.
type DirectionsCache struct {
	directions      DirectionsProvider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration
	metrics         *resilience.ProviderMetrics

	mu          sync.RWMutex
	cache       map[string]*cachedAlternatives
	lastCleanup time.Time
}

type cachedAlternatives struct {
	candidates []RouteCandidate
	fetchedAt  time.Time
	expiresAt  time.Time
}

// NewDirectionsCache creates a directions cache, filling zero config
// fields with defaults.
func NewDirectionsCache(cfg DirectionsCacheConfig) *DirectionsCache {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.001 // ~110m at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &DirectionsCache{
		directions:      cfg.Directions,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		metrics:         cfg.Metrics,
		cache:           make(map[string]*cachedAlternatives),
	}
}

// Name returns the underlying provider identifier.
func (c *DirectionsCache) Name() string {
	return c.directions.Name()
}

// FetchAlternatives returns route alternatives between two points, served
// from cache when fresh.
func (c *DirectionsCache) FetchAlternatives(ctx context.Context, start, end geo.Point, maxAlternatives int) ([]RouteCandidate, error) {
	cacheKey := c.cacheKey(start, end, maxAlternatives)

	c.mu.RLock()
	if cached, ok := c.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		c.mu.RUnlock()
		c.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for route alternatives")
		c.metrics.RecordCacheHit(c.directions.Name(), "fetch_alternatives")
		return cached.candidates, nil
	}
	c.mu.RUnlock()

	c.metrics.RecordCacheMiss(c.directions.Name(), "fetch_alternatives")
	return c.fetchAlternatives(ctx, start, end, maxAlternatives, cacheKey)
}

// fetchAlternatives fetches from the provider and updates the cache.
func (c *DirectionsCache) fetchAlternatives(ctx context.Context, start, end geo.Point, maxAlternatives int, cacheKey string) ([]RouteCandidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := c.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		c.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit after double-check")
		return cached.candidates, nil
	}

	c.logger.Debug().
		Float64("start_lat", start.Lat).
		Float64("start_lon", start.Lon).
		Float64("end_lat", end.Lat).
		Float64("end_lon", end.Lon).
		Str("provider", c.directions.Name()).
		Msg("fetching route alternatives from provider")

	cands, err := c.directions.FetchAlternatives(ctx, start, end, maxAlternatives)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is the orchestrator superseding us; stale data
			// must not mask it.
			return nil, err
		}

		// Stale-if-error: a recently fetched set beats a hard failure.
		if cached, ok := c.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(c.staleIfErrorTTL)) {
				c.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale route alternatives due to provider error")
				return cached.candidates, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	c.cache[cacheKey] = &cachedAlternatives{
		candidates: cands,
		fetchedAt:  now,
		expiresAt:  now.Add(c.cacheTTL),
	}

	c.logger.Debug().
		Str("cache_key", cacheKey).
		Int("alternatives", len(cands)).
		Msg("cached route alternatives")

	c.cleanupIfNeeded()

	return cands, nil
}

// cacheKey quantizes both endpoints onto the cache grid.
// Format: {gridStartLat},{gridStartLon}:{gridEndLat},{gridEndLon}:{max}.
func (c *DirectionsCache) cacheKey(start, end geo.Point, maxAlternatives int) string {
	gridStartLat := math.Floor(start.Lat/c.cacheGridSize) * c.cacheGridSize
	gridStartLon := math.Floor(start.Lon/c.cacheGridSize) * c.cacheGridSize
	gridEndLat := math.Floor(end.Lat/c.cacheGridSize) * c.cacheGridSize
	gridEndLon := math.Floor(end.Lon/c.cacheGridSize) * c.cacheGridSize

	return fmt.Sprintf("%.3f,%.3f:%.3f,%.3f:%d",
		gridStartLat, gridStartLon,
		gridEndLat, gridEndLon,
		maxAlternatives,
	)
}

// cleanupIfNeeded removes entries past the stale-if-error window if the
// cleanup interval has passed. Callers hold the write lock.
func (c *DirectionsCache) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(c.lastCleanup) < c.cleanupInterval {
		return
	}

	c.lastCleanup = now
	expired := 0

	for key, cached := range c.cache {
		if now.After(cached.fetchedAt.Add(c.staleIfErrorTTL)) {
			delete(c.cache, key)
			expired++
		}
	}

	if expired > 0 {
		c.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired route alternative cache entries")
	}
}

// InvalidateCache clears all cached alternatives.
func (c *DirectionsCache) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cachedAlternatives)
}

// CacheStats returns cache statistics.
func (c *DirectionsCache) CacheStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	fresh := 0
	stale := 0

	for _, cached := range c.cache {
		if now.Before(cached.expiresAt) {
			fresh++
		} else if now.Before(cached.fetchedAt.Add(c.staleIfErrorTTL)) {
			stale++
		}
	}

	return CacheStats{
		TotalEntries: len(c.cache),
		FreshEntries: fresh,
		StaleEntries: stale,
		Provider:     c.directions.Name(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}
