// Package main provides the entrypoint for the CellWay background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/telemetry"
	"github.com/cellway/cellway/internal/towers"
	"github.com/cellway/cellway/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "cellway-worker"

	// Load .env for local development; absence is fine.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CellWay worker")

	// Worker also exposes a health endpoint for Cloud Run.
	port := envOrDefault("APP_PORT", "8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    envOrDefault("APP_ENV", "development"),
		OTLPEndpoint:   envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Tower dataset: the CSV export when configured, mock towers
	// otherwise. Only the CSV source supports refresh jobs.
	var (
		towersService *towers.Service
		reloader      worker.DatasetReloader
	)
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
		reloader = csvSource
		towersService = towers.NewService(towers.ServiceConfig{
			Source: csvSource,
			Logger: log,
		})
	} else {
		log.Warn().Msg("TOWERS_CSV_PATH not set - reporting on mock tower data")
		towersService = towers.NewService(towers.ServiceConfig{
			Source: towers.NewMockSource(towers.MockSourceConfig{Logger: log}),
			Logger: log,
		})
	}

	refreshJob := worker.NewRefreshJob(reloader, log)
	reportJob := worker.NewReportJob(worker.ReportJobConfig{
		Towers: towersService,
		Logger: log,
	})

	// Pub/Sub job subscription
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("PUBSUB_PROJECT_ID")
	}
	subscriptionName := envOrDefault("PUBSUB_SUBSCRIPTION", "cellway-worker-jobs")

	if projectID == "" {
		log.Fatal().Msg("GOOGLE_CLOUD_PROJECT or PUBSUB_PROJECT_ID must be set")
	}

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: subscriptionName,
		RefreshJob:       refreshJob,
		ReportJob:        reportJob,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer func() {
		if closeErr := handler.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close pubsub client")
		}
	}()

	// Health check server for Cloud Run
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"OK","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Receive blocks until the context is cancelled.
	receiveErr := make(chan error, 1)
	go func() {
		receiveErr <- handler.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutting down worker")
	case err := <-receiveErr:
		if err != nil {
			log.Error().Err(err).Msg("pubsub receive failed")
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
