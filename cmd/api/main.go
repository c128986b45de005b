// Package main provides the entrypoint for the CellWay API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/api"
	"github.com/cellway/cellway/internal/api/middleware"
	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/auth"
	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/database"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/geocoding"
	"github.com/cellway/cellway/internal/geocoding/google"
	"github.com/cellway/cellway/internal/geocoding/maptiler"
	"github.com/cellway/cellway/internal/provider/resilience"
	"github.com/cellway/cellway/internal/routestore"
	"github.com/cellway/cellway/internal/routing"
	"github.com/cellway/cellway/internal/routing/graphhopper"
	"github.com/cellway/cellway/internal/routing/openrouteservice"
	"github.com/cellway/cellway/internal/telemetry"
	"github.com/cellway/cellway/internal/towers"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "cellway-api"

	// Load .env for local development; absence is fine.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CellWay API")

	port := envOrDefault("APP_PORT", "8080")
	env := envOrDefault("APP_ENV", "development")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Shared provider health registry, surfaced via /v1/ops/providers.
	registry := resilience.NewRegistry()

	// Storage-backed repositories
	var (
		userRepo    auth.UserRepository
		refreshRepo auth.RefreshTokenRepository
		resetRepo   auth.ResetTokenRepository
		routeRepo   routestore.Repository
	)

	switch driver := database.DriverFromEnv(); driver {
	case database.DriverPostgres:
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		userRepo = auth.NewPostgresUserRepository(pool)
		refreshRepo = auth.NewPostgresRefreshTokenRepository(pool)
		resetRepo = auth.NewPostgresResetTokenRepository(pool)
		routeRepo = routestore.NewPostgresRepository(pool)

	case database.DriverSQLite:
		path := database.SQLitePathFromEnv()
		db, err := database.OpenSQLite(ctx, path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite database")
		}
		defer db.Close()
		if err := auth.EnsureSQLiteSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to create sqlite schema")
		}
		log.Info().Str("path", path).Msg("sqlite database opened")

		userRepo = auth.NewSQLiteUserRepository(db)
		refreshRepo = auth.NewSQLiteRefreshTokenRepository(db)
		resetRepo = auth.NewSQLiteResetTokenRepository(db)
		sqliteRoutes, err := routestore.NewSQLiteRepository(ctx, db)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create saved route schema")
		}
		routeRepo = sqliteRoutes

	default:
		log.Warn().Msg("using in-memory storage - data is lost on restart")
		userRepo = auth.NewInMemoryUserRepository()
		refreshRepo = auth.NewInMemoryRefreshTokenRepository()
		resetRepo = auth.NewInMemoryResetTokenRepository()
		routeRepo = routestore.NewInMemoryRepository()
	}

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:  jwtService,
		UserRepo:    userRepo,
		RefreshRepo: refreshRepo,
		ResetRepo:   resetRepo,
		Mailer: &auth.LogMailer{
			ResetURLBase: envOrDefault("RESET_URL_BASE", "https://app.cellway.app/reset-password?token="),
			Logger:       log,
		},
	})
	log.Info().Msg("auth service initialized")

	// Geocoding provider and optional Redis response cache
	var geocoder geocoding.Provider
	switch name := envOrDefault("GEOCODER", "maptiler"); name {
	case "google":
		googleClient, err := google.NewClient(google.ClientConfig{
			APIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
			Logger: log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create google geocoding client")
		}
		geocoder = googleClient
	default:
		geocoder = maptiler.NewClient(maptiler.ClientConfig{
			APIKey:   os.Getenv("MAPTILER_API_KEY"),
			Registry: registry,
			Logger:   log,
		})
	}

	var geocodeCache geocoding.ResponseCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable - geocode caching disabled")
		} else {
			geocodeCache = geocoding.NewRedisCache(redisClient)
			log.Info().Str("addr", redisAddr).Msg("redis geocode cache enabled")
		}
	}

	geocodingService := geocoding.NewService(geocoding.ServiceConfig{
		Provider: geocoder,
		Cache:    geocodeCache,
		Logger:   log,
	})
	log.Info().Str("provider", geocodingService.ProviderName()).Msg("geocoding service initialized")

	// Tower dataset: a CSV export when configured, deterministic mock
	// towers otherwise so a bare checkout still serves coverage.
	mockSource := towers.NewMockSource(towers.MockSourceConfig{Logger: log})

	var towersService *towers.Service
	if csvPath := os.Getenv("TOWERS_CSV_PATH"); csvPath != "" {
		csvSource, err := towers.NewCSVSource(towers.CSVSourceConfig{
			Path:   csvPath,
			Logger: log,
		})
		if err != nil {
			log.Fatal().Err(err).Str("path", csvPath).Msg("failed to load tower dataset")
		}
		log.Info().
			Str("path", csvPath).
			Int("towers", csvSource.Count()).
			Msg("tower dataset loaded")
		towersService = towers.NewService(towers.ServiceConfig{
			Source:   csvSource,
			Fallback: mockSource,
			Logger:   log,
		})
	} else {
		log.Warn().Msg("TOWERS_CSV_PATH not set - serving mock tower data")
		towersService = towers.NewService(towers.ServiceConfig{
			Source: mockSource,
			Logger: log,
		})
	}

	// Routing provider behind a short-lived directions cache
	var directions routing.DirectionsProvider
	switch name := envOrDefault("ROUTING_PROVIDER", "graphhopper"); name {
	case "openrouteservice":
		directions = openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   os.Getenv("ORS_API_KEY"),
			Profile:  os.Getenv("ORS_PROFILE"),
			Registry: registry,
			Logger:   log,
		})
	default:
		directions = graphhopper.NewClient(graphhopper.ClientConfig{
			APIKey:   os.Getenv("GRAPHHOPPER_API_KEY"),
			Registry: registry,
			Logger:   log,
		})
	}
	log.Info().Str("provider", directions.Name()).Msg("routing provider initialized")

	cacheMetrics, _ := resilience.NewProviderMetrics()
	directionsCache := routing.NewDirectionsCache(routing.DirectionsCacheConfig{
		Directions: directions,
		Logger:     log,
		Metrics:    cacheMetrics,
	})

	planner := routing.NewPlanner(routing.PlannerConfig{
		Directions: directionsCache,
		Towers:     towersService,
		Correlator: coverage.NewCorrelator(coverage.CorrelatorConfig{
			Projector: geo.NewMercatorProjector(),
			Logger:    log,
		}),
		Scorer: coverage.NewScorer(coverage.DefaultScoreConfig()),
		Logger: log,
	})

	routingManager := routing.NewManager(routing.ManagerConfig{
		Session: routing.SessionConfig{
			Provider: planner,
			Logger:   log,
			Meter:    tp.Meter,
		},
		Logger: log,
	})
	log.Info().Msg("routing manager initialized")

	routeStore := routestore.NewService(routeRepo)

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		AuthService:      authService,
		GeocodingService: geocodingService,
		TowersService:    towersService,
		RoutingManager:   routingManager,
		RouteStore:       routeStore,
		Registry:         registry,
		MapConfig: models.MapConfig{
			StyleURL: os.Getenv("MAP_STYLE_URL"),
		},
		AllowedOrigins: splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
