package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/cafepos/backend/internal/application/inventory"
	returnsapp "github.com/cafepos/backend/internal/application/returns"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/cafepos/backend/internal/infrastructure/auth"
	"github.com/cafepos/backend/internal/infrastructure/cache"
	"github.com/cafepos/backend/internal/infrastructure/config"
	"github.com/cafepos/backend/internal/infrastructure/event"
	"github.com/cafepos/backend/internal/infrastructure/locking"
	"github.com/cafepos/backend/internal/infrastructure/logger"
	"github.com/cafepos/backend/internal/infrastructure/migration"
	"github.com/cafepos/backend/internal/infrastructure/notification"
	"github.com/cafepos/backend/internal/infrastructure/persistence"
	"github.com/cafepos/backend/internal/infrastructure/telemetry"
	"github.com/cafepos/backend/internal/interfaces/http/handler"
	"github.com/cafepos/backend/internal/interfaces/http/middleware"
	"github.com/cafepos/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/cafepos/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			CafePOS Inventory Ledger API
//	@version		1.0
//	@description	Batch based inventory ledger and returns processing for a cafe point of sale.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/cafepos/backend
//	@contact.email	support@cafepos.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CafePOS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize OTEL log bridge and reroute the application logger through it
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = telemetry.BridgeLogger(log, loggerProvider, cfg.Telemetry.ServiceName, cfg.Log.Level)

	// Start continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Link profiles to trace spans when both sides are up
	if cfg.Telemetry.SpanProfiles && tracerProvider.IsEnabled() && profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Apply pending migrations on boot in development. Production schema
	// changes go through cmd/migrate explicitly.
	if cfg.App.Env == "development" {
		bootMigrator, err := migration.NewFromURL(cfg.Database.DSN(), "migrations", log)
		if err != nil {
			log.Fatal("Failed to initialize migrator", zap.Error(err))
		}
		if err := bootMigrator.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		if err := bootMigrator.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing
	if cfg.Telemetry.DBTraceEnabled {
		tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := tracingPlugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Database query and pool metrics
	if cfg.Telemetry.MetricsEnabled {
		dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
		dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
		if err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		} else if dbMetrics != nil {
			dbMetrics.StartPoolStatsCollection(ctx)
			defer dbMetrics.Stop()
		}
	}

	// Redis backs distributed locking and the returns notification channel.
	// Neither mode is on by default, so connect only when asked to.
	var redisClient *redis.Client
	if cfg.Locking.Mode == "redis" || cfg.Notification.Mode == "redis" {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Per-product lock serializing deductions, returns and undos
	var locker shared.ProductLocker
	if cfg.Locking.Mode == "redis" {
		locker = locking.NewRedisProductLocker(redisClient, cfg.Locking, log)
	} else {
		locker = locking.NewLocalProductLocker()
	}
	log.Info("Product locking initialized", zap.String("mode", cfg.Locking.Mode))

	// Initialize repositories
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	returnRepo := persistence.NewGormReturnRepository(db.DB)
	productCatalog := persistence.NewGormProductCatalog(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	returnsTxScope := persistence.NewGormReturnsTransactionScope(db.DB)

	clock := shared.SystemClock{}

	// Initialize application services
	batchService := inventoryapp.NewBatchService(batchRepo, productCatalog, txScope, locker, clock)
	consumptionService := inventoryapp.NewConsumptionService(batchRepo, txScope, locker)
	returnsService := returnsapp.NewReturnsService(batchRepo, returnRepo, productCatalog, returnsTxScope, locker, clock)

	// Initialize event bus with the audit relay subscribed to every ledger event
	eventBus := event.NewInMemoryEventBus(log)
	auditRelay := event.NewAuditRelay(log)
	eventBus.Subscribe(auditRelay, auditRelay.EventTypes()...)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	returnsService.SetEventPublisher(eventBus)

	// Best-effort notification sink for processed returns
	notifier, err := notification.NewNotifier(cfg.Notification, redisClient, log)
	if err != nil {
		log.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	returnsService.SetNotifier(notifier)
	log.Info("Return notifications initialized", zap.String("mode", cfg.Notification.Mode))

	// Ledger business metrics with the periodic stock age profile gauge
	if meterProvider.IsEnabled() {
		ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
			Meter:         meterProvider.Meter("cafepos.ledger"),
			Logger:        log,
			StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize ledger metrics", zap.Error(err))
		} else {
			ledgerMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.StockGaugeInterval)
			defer ledgerMetrics.Stop()
			batchService.SetLedgerMetrics(ledgerMetrics)
			consumptionService.SetLedgerMetrics(ledgerMetrics)
			returnsService.SetLedgerMetrics(ledgerMetrics)
		}
	}

	// Initialize HTTP handlers
	batchHandler := handler.NewBatchHandler(batchService)
	stockHandler := handler.NewStockHandler(consumptionService, batchService)
	returnsHandler := handler.NewReturnsHandler(returnsService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - otelgin spans plus error status marking
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. Metrics - HTTP server metrics
	// 9. RateLimit - Apply rate limiting (if enabled)
	// 10. Profiling - pprof labels per route
	engine.Use(middleware.RequestID())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// HTTP server metrics
	if cfg.Telemetry.MetricsEnabled {
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Route-scoped profiling labels
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Actor tokens are verified when a secret is configured. A development
	// setup may run open; production refuses to boot without one.
	var verifier *auth.TokenVerifier
	if cfg.JWT.Secret != "" {
		verifier = auth.NewTokenVerifier(cfg.JWT)
	} else {
		log.Warn("JWT secret not configured, ledger API runs unauthenticated")
	}

	// Swagger documentation endpoint, gated per config
	var swaggerJWT gin.HandlerFunc
	if verifier != nil {
		swaggerJWT = middleware.JWTAuthMiddleware(verifier)
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig(cfg.Swagger), swaggerJWT),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	if verifier != nil {
		jwtConfig := middleware.DefaultJWTConfig(verifier)
		jwtConfig.Logger = log
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	}

	// Span enrichment with request id and actor, after authentication has
	// identified the actor
	if cfg.Telemetry.Enabled {
		r.Use(middleware.TracingAttributeInjector())
	}

	// Register domain route groups
	r.Register(batchHandler).
		Register(stockHandler).
		Register(returnsHandler).
		Register(systemHandler)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
