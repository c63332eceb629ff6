package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodtrack-platform/tracking-service/internal/api/handlers"
	"github.com/prodtrack-platform/tracking-service/internal/application"
	storage "github.com/prodtrack-platform/tracking-service/internal/infrastructure/mongodb"
	"github.com/prodtrack-platform/tracking-service/pkg/cloudevents"
	"github.com/prodtrack-platform/tracking-service/pkg/kafka"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/metrics"
	"github.com/prodtrack-platform/tracking-service/pkg/middleware"
	"github.com/prodtrack-platform/tracking-service/pkg/mongodb"
	"github.com/prodtrack-platform/tracking-service/pkg/outbox"
	outboxMongo "github.com/prodtrack-platform/tracking-service/pkg/outbox/mongodb"
	"github.com/prodtrack-platform/tracking-service/pkg/resilience"
	"github.com/prodtrack-platform/tracking-service/pkg/tracing"
)

const serviceName = "tracking-service"

func main() {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.Enabled = getEnvBool("TRACING_ENABLED", false)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", tracingConfig.OTLPEndpoint)

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)

	var mongoClient *mongodb.Client
	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.MaxAttempts = 5
	retryConfig.RetryableErrors = func(error) bool { return true }
	err = resilience.Retry(ctx, retryConfig, func() error {
		var connectErr error
		mongoClient, connectErr = mongodb.NewClient(ctx, mongoConfig)
		return connectErr
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Close(disconnectCtx)
	}()

	db := mongoClient.Database()
	itemRepo := storage.NewItemRepository(db)
	workflowRepo := storage.NewWorkflowRepository(db)
	locationRepo := storage.NewLocationRepository(db)
	movementRepo := storage.NewMovementRepository(db)
	transactor := storage.NewTransactor(mongoClient)

	outboxRepo := outboxMongo.NewOutboxRepository(db)
	if err := outboxRepo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to create outbox indexes")
	}

	kafkaConfig := kafka.DefaultConfig()
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		kafkaConfig.Brokers = strings.Split(brokers, ",")
	}
	producer := kafka.NewProductionProducer(kafkaConfig, m, logger)
	defer producer.Close()

	publisher := outbox.NewPublisher(outboxRepo, producer, logger, m, nil)
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer func() { _ = publisher.Stop() }()

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceTracking)

	itemService := application.NewItemApplicationService(
		itemRepo, workflowRepo, locationRepo, movementRepo,
		outboxRepo, transactor, eventFactory, logger, m,
	)
	workflowService := application.NewWorkflowApplicationService(
		workflowRepo, itemRepo, outboxRepo, transactor, eventFactory, logger,
	)
	locationService := application.NewLocationApplicationService(
		locationRepo, workflowRepo, outboxRepo, transactor, eventFactory, logger,
	)

	dashboardConfig := application.DefaultDashboardConfig()
	if minutes := getEnvInt("STUCK_THRESHOLD_MINUTES", 0); minutes > 0 {
		dashboardConfig.StuckThreshold = time.Duration(minutes) * time.Minute
	}
	if minutes := getEnvInt("EXPECTED_STAGE_DURATION_MINUTES", 0); minutes > 0 {
		dashboardConfig.ExpectedStageDuration = time.Duration(minutes) * time.Minute
	}
	dashboardService := application.NewDashboardService(
		itemRepo, workflowRepo, locationRepo, dashboardConfig, logger,
	)

	if getEnv("GIN_MODE", "") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return mongoClient.HealthCheck(checkCtx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")
	handlers.NewItemHandlers(itemService, logger).RegisterRoutes(api)
	handlers.NewWorkflowHandlers(workflowService, logger).RegisterRoutes(api)
	handlers.NewLocationHandlers(locationService, logger).RegisterRoutes(api)
	handlers.NewDashboardHandlers(dashboardService, logger).RegisterRoutes(api)

	server := &http.Server{
		Addr:         getEnv("SERVER_ADDR", ":8080"),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
