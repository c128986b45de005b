// Package api provides the HTTP API for CellWay.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/api/handler"
	"github.com/cellway/cellway/internal/api/middleware"
	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/auth"
	"github.com/cellway/cellway/internal/geocoding"
	"github.com/cellway/cellway/internal/provider/resilience"
	"github.com/cellway/cellway/internal/routestore"
	"github.com/cellway/cellway/internal/routing"
	"github.com/cellway/cellway/internal/towers"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	AuthService      *auth.Service
	GeocodingService *geocoding.Service
	TowersService    *towers.Service
	RoutingManager   *routing.Manager
	RouteStore       *routestore.Service
	Registry         *resilience.Registry

	// MapConfig is the client map bootstrap; zero value serves the
	// built-in default.
	MapConfig models.MapConfig

	// AllowedOrigins restricts CORS; empty allows any origin.
	AllowedOrigins []string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "cellway-api"
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.ContentTypeJSON) // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	geocodeHandler := handler.NewGeocodeHandler(cfg.GeocodingService)
	towersHandler := handler.NewTowersHandler(cfg.TowersService)
	routeHandler := handler.NewRouteHandler(cfg.RoutingManager)
	savedRouteHandler := handler.NewSavedRouteHandler(cfg.RouteStore)
	mapConfigHandler := handler.NewMapConfigHandler(cfg.MapConfig)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// Probes at the root, outside rate limiting
	r.Get("/health", opsHandler.HealthCheck)
	r.Get("/ready", opsHandler.ReadinessCheck)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
			// session and logout-all require authentication
			r.With(authMiddleware).Get("/session", authHandler.Session)
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		// Geocoding endpoints (public) - standard rate limiting
		r.Route("/geo", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/forward", geocodeHandler.Forward)
			r.Get("/reverse", geocodeHandler.Reverse)
		})

		// Tower queries (public) - standard rate limiting
		r.With(standardRateLimit).Get("/towers", towersHandler.Query)

		// Map bootstrap (public)
		r.With(standardRateLimit).Get("/map/config", mapConfigHandler.GetConfig)

		r.Route("/routes", func(r chi.Router) {
			// Route computation fans out to the routing provider once per
			// kind, so it gets the strictest non-auth limit.
			r.With(expensiveRateLimit).Get("/compute", routeHandler.ComputeRoutes)

			// Saved routes (authenticated) - user-based rate limiting
			r.Route("/saved", func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per user
				r.Post("/", savedRouteHandler.Create)
				r.Get("/", savedRouteHandler.List)
				r.Route("/{routeID}", func(r chi.Router) {
					r.Get("/", savedRouteHandler.Get)
					r.Delete("/", savedRouteHandler.Delete)
				})
			})
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/providers", opsHandler.Providers)
		})
	})

	return r
}
