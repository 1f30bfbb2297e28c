package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/adapters/database"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/adapters/ledger"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/adapters/search"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/api/handlers"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/api/routes"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/application/services"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/providers"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/repositories"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/observability"
	"github.com/zatekoja/Patientrecordanonymizationdesign/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("ENV"))
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Redis client")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Typesense client")
		typesenseClient = nil
	} else {
		logger.Info().Msg("Typesense client initialized")
	}

	// Initialize adapters
	stage1Store := database.NewStage1Adapter(pgClient)

	var indexRepo repositories.Stage1IndexRepository
	if typesenseClient != nil {
		adapter := search.NewStage1IndexAdapter(typesenseClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("failed to init Typesense schema")
		}
		indexRepo = adapter
	}

	// Select the provenance ledger backend
	var ledgerProvider providers.LedgerProvider
	switch cfg.Ledger.Backend {
	case "redis":
		if redisClient == nil {
			logger.Fatal().Msg("ledger backend is redis but Redis is unavailable")
		}
		ledgerProvider = ledger.NewRedisLedgerAdapter(redisClient, cfg.Ledger.Stream)
		logger.Info().Str("stream", cfg.Ledger.Stream).Msg("Redis Streams ledger initialized")
	case "leveldb":
		adapter, err := ledger.NewLevelDBLedgerAdapter(cfg.Ledger.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open LevelDB ledger")
		}
		defer adapter.Close()
		ledgerProvider = adapter
		logger.Info().Str("path", cfg.Ledger.Path).Msg("LevelDB ledger initialized")
	case "none":
		logger.Warn().Msg("provenance ledger disabled; records will not be anchored")
	default:
		logger.Fatal().Str("backend", cfg.Ledger.Backend).Msg("unknown ledger backend")
	}

	// Initialize services
	pipelineService := services.NewPipelineService(stage1Store, indexRepo, ledgerProvider, metrics, *logger)

	// Initialize handlers
	batchHandler := handlers.NewBatchHandler(pipelineService)

	// Set up router
	router := routes.NewRouter(batchHandler, *logger)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
