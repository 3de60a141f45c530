package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"advertisement-service/internal/config"
	"advertisement-service/internal/delivery/router"
	"advertisement-service/internal/infrastructure/events"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/repository"
	"advertisement-service/internal/service"
	"advertisement-service/pkg/database"
	"advertisement-service/pkg/logger"
	"advertisement-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	redisClient "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	cfg := config.MustLoadConfig()

	loggers, err := logger.SetupLogger(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	loggers.InfoLogger.Info("Logger initialized")

	store, cleanupDB := setupDatabase(cfg, loggers)
	defer cleanupDB()

	tracerProvider := setupTracer(cfg, loggers)
	defer shutdownTracer(tracerProvider, loggers)

	registry := prometheus.DefaultRegisterer
	handlerMetrics := metrics.NewHandlerMetrics(registry)
	serviceMetrics := metrics.NewServiceMetrics(registry)
	repositoryMetrics := metrics.NewRepositoryMetrics(registry)
	eventMetrics := metrics.NewEventMetrics(registry)
	metrics.RegisterDBStats(registry, store.DB, cfg.Database.Name)
	loggers.InfoLogger.Info("Prometheus metrics initialized")

	publisher, cleanupRedis := setupPublisher(cfg, loggers, eventMetrics)
	defer cleanupRedis()

	advertisementRepo := repository.NewAdvertisementRepository(store, repositoryMetrics)
	advertisementService := service.NewAdvertisementService(advertisementRepo, publisher, loggers, serviceMetrics)
	loggers.InfoLogger.Info("Service and repository layers initialized")

	r := chi.NewRouter()
	router.SetupMiddleware(r, loggers, cfg.HTTP.CORSAllowedOrigins)
	router.SetupAdvertisementRoutes(r, store, advertisementService, loggers, handlerMetrics)
	loggers.InfoLogger.Info("Router and routes initialized")

	r.Handle("/metrics", metrics.HTTPHandler(prometheus.DefaultGatherer))

	server := startServer(cfg, r, loggers)

	waitForShutdown(server, loggers)
}

func setupDatabase(cfg *config.Config, loggers *logger.Loggers) (*database.Store, func()) {
	store, err := database.NewDatabase(database.Options{
		Dialect:         database.Dialect(cfg.Database.Driver),
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		loggers.ErrorLogger.Error("Failed to connect to database", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Connected to database", "driver", cfg.Database.Driver)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.ResetSchema(ctx); err != nil {
		loggers.ErrorLogger.Error("Failed to reset database schema", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Database schema recreated")

	cleanup := func() {
		if err := store.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to close database connection", utils.Err(err))
		}
	}

	return store, cleanup
}

func setupPublisher(cfg *config.Config, loggers *logger.Loggers, eventMetrics *metrics.EventMetrics) (events.Publisher, func()) {
	if !cfg.Redis.Enabled {
		loggers.InfoLogger.Info("Redis disabled, change events are not published")
		return events.NopPublisher{}, func() {}
	}

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		loggers.ErrorLogger.Error("Failed to connect to Redis", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Connected to Redis", "channel", cfg.Redis.Channel)

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to close Redis client", utils.Err(err))
		}
	}

	return events.NewRedisPublisher(rdb, cfg.Redis.Channel, eventMetrics), cleanup
}

func setupTracer(cfg *config.Config, loggers *logger.Loggers) *sdktrace.TracerProvider {
	if !cfg.Tracing.Enabled {
		return nil
	}

	tracerProvider, err := metrics.InitTracer(
		cfg.Tracing.ServiceName,
		cfg.Tracing.Environment,
		cfg.Tracing.Version,
		cfg.Tracing.Endpoint,
	)
	if err != nil {
		loggers.ErrorLogger.Error("Failed to initialize tracer", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("OpenTelemetry Tracer initialized")
	return tracerProvider
}

func shutdownTracer(tp *sdktrace.TracerProvider, loggers *logger.Loggers) {
	if tp == nil {
		return
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		loggers.ErrorLogger.Error("Failed to shut down tracer provider", utils.Err(err))
	}
}

func startServer(cfg *config.Config, handler http.Handler, loggers *logger.Loggers) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	}

	go func() {
		loggers.InfoLogger.Info("Starting server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggers.ErrorLogger.Error("Failed to start server", utils.Err(err))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(server *http.Server, loggers *logger.Loggers) {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	<-shutdownCh
	loggers.InfoLogger.Info("Shutdown signal received, shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		loggers.ErrorLogger.Error("Server forced to shutdown", utils.Err(err))
	} else {
		loggers.InfoLogger.Info("Server shutdown gracefully")
	}
}
