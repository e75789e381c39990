package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcustomization "github.com/printmarket/backend/internal/application/customization"
	appfinance "github.com/printmarket/backend/internal/application/finance"
	appinventory "github.com/printmarket/backend/internal/application/inventory"
	appnotification "github.com/printmarket/backend/internal/application/notification"
	apptrade "github.com/printmarket/backend/internal/application/trade"
	"github.com/printmarket/backend/internal/domain/notification"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/auth"
	"github.com/printmarket/backend/internal/infrastructure/cache"
	"github.com/printmarket/backend/internal/infrastructure/config"
	"github.com/printmarket/backend/internal/infrastructure/event"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/messaging"
	"github.com/printmarket/backend/internal/infrastructure/payment"
	"github.com/printmarket/backend/internal/infrastructure/persistence"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
	"github.com/printmarket/backend/internal/interfaces/http/handler"
	"github.com/printmarket/backend/internal/interfaces/http/middleware"
	"github.com/printmarket/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting marketplace backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(bootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected")

	// Redis backs cache invalidation and email dedupe when enabled
	var (
		redisClient *redis.Client
		invalidator appnotification.CacheInvalidator = cache.NewNoopCacheInvalidator(log)
		dedupe      shared.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(bootCtx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		invalidator = cache.NewRedisCacheInvalidator(redisClient, "cache:invalidate", log)
		dedupe = cache.NewRedisIdempotencyStore(redisClient, "dedupe:")
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		dedupe = cache.NewInMemoryIdempotencyStore(time.Minute)
	}

	// Notifications go to Kafka when enabled, otherwise to the log
	var notifier notification.Notifier = messaging.NewLogNotifier(log)
	var kafkaNotifier *messaging.KafkaNotifier
	if cfg.Kafka.Enabled {
		producer, err := messaging.NewSyncProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("Failed to create Kafka producer", zap.Error(err))
		}
		kafkaNotifier = messaging.NewKafkaNotifier(producer, cfg.Kafka.Topic, log)
		notifier = kafkaNotifier
		log.Info("Kafka notifier enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	requestRepo := persistence.NewGormCustomizationRequestRepository(db.DB)
	referenceRepo := persistence.NewGormPaymentReferenceRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	activityRepo := persistence.NewGormActivityLogRepository(db.DB)

	// Event bus and side effects
	bus := event.NewInMemoryEventBus(log,
		event.WithAsync(cfg.Reconciliation.AsyncSideEffects),
		event.WithFailureHook(func(name string, evt shared.DomainEvent, err error) {
			metrics.RecordSideEffectFailure(name)
		}),
	)
	appnotification.Register(bus, appnotification.Subscribers{
		ActivityRepo:   activityRepo,
		Invalidator:    invalidator,
		Notifier:       notifier,
		DedupeStore:    dedupe,
		EmailDedupeTTL: cfg.Reconciliation.EmailDedupeTTL,
		Logger:         log,
	})
	if err := bus.Start(bootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Payment gateway
	xendit, err := payment.NewXenditAdapter(&payment.XenditConfig{
		BaseURL:   cfg.Xendit.BaseURL,
		SecretKey: cfg.Xendit.SecretKey,
		Timeout:   cfg.Xendit.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to configure payment gateway", zap.Error(err))
	}
	if cfg.Xendit.CallbackToken == "" {
		log.Warn("Webhook callback token is not configured; every webhook will be rejected")
	}

	// Application services
	gatewayService := appfinance.NewGatewayService(appfinance.GatewayServiceConfig{
		Gateway:            xendit,
		Currency:           cfg.Xendit.Currency,
		InvoiceDuration:    cfg.Xendit.InvoiceDuration,
		SuccessRedirectURL: cfg.Xendit.SuccessRedirectURL,
		FailureRedirectURL: cfg.Xendit.FailureRedirectURL,
		Metrics:            metrics,
		Logger:             log,
	})
	inventoryService := appinventory.NewInventoryService(appinventory.InventoryServiceConfig{
		StockRepo:    stockRepo,
		ActivityRepo: activityRepo,
		Metrics:      metrics,
		Concurrency:  cfg.Reconciliation.FanOutConcurrency,
		Logger:       log,
	})
	reconciliationService := appfinance.NewReconciliationService(appfinance.ReconciliationServiceConfig{
		Verifier:      payment.NewHMACWebhookVerifier(cfg.Xendit.CallbackToken),
		OrderRepo:     orderRepo,
		RequestRepo:   requestRepo,
		ReferenceRepo: referenceRepo,
		ActivityRepo:  activityRepo,
		Stock:         inventoryService,
		Publisher:     bus,
		Metrics:       metrics,
		RetryAttempts: cfg.Reconciliation.RetryAttempts,
		Concurrency:   cfg.Reconciliation.FanOutConcurrency,
		Logger:        log,
	})
	pricingService := appcustomization.NewPricingService(requestRepo, bus, metrics, log)
	escrowService := appcustomization.NewPaymentService(requestRepo, gatewayService, referenceRepo, metrics, log)
	orderPaymentService := apptrade.NewOrderPaymentService(orderRepo, gatewayService, referenceRepo, metrics, log)

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.HTTPMetrics(metrics),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanErrorMarker(),
	)

	checks := map[string]handler.HealthChecker{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.HealthCheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	routes := router.Config{
		Handlers: router.Handlers{
			System:        handler.NewSystemHandler(version, checks),
			Webhook:       handler.NewWebhookHandler(reconciliationService),
			Customization: handler.NewCustomizationHandler(pricingService, escrowService),
			Payment:       handler.NewPaymentHandler(orderPaymentService, gatewayService),
		},
		Authenticate: middleware.Authenticate(middleware.AuthConfig{
			Validator:           auth.NewTokenValidator(cfg.JWT),
			AllowHeaderIdentity: cfg.Auth.AllowHeaderIdentity,
			Logger:              log,
		}),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		WebhookMaxBody: cfg.HTTP.WebhookMaxBody,
	}
	if metrics != nil {
		routes.Metrics = metrics.Handler()
	}
	router.Setup(engine, routes)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	// Stop intake first, then drain side effects, then release their sinks.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(ctx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			log.Warn("Error closing Kafka producer", zap.Error(err))
		}
	}
	if closer, ok := dedupe.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("Error closing Redis", zap.Error(err))
		}
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
