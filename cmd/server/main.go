package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/moa/backend/internal/application/catalog"
	eventapp "github.com/moa/backend/internal/application/event"
	identityapp "github.com/moa/backend/internal/application/identity"
	orderapp "github.com/moa/backend/internal/application/order"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/auth"
	"github.com/moa/backend/internal/infrastructure/cache"
	"github.com/moa/backend/internal/infrastructure/config"
	"github.com/moa/backend/internal/infrastructure/event"
	"github.com/moa/backend/internal/infrastructure/logger"
	"github.com/moa/backend/internal/infrastructure/migration"
	"github.com/moa/backend/internal/infrastructure/payment"
	"github.com/moa/backend/internal/infrastructure/persistence"
	"github.com/moa/backend/internal/infrastructure/printing"
	"github.com/moa/backend/internal/infrastructure/scheduler"
	"github.com/moa/backend/internal/infrastructure/storage"
	"github.com/moa/backend/internal/infrastructure/telemetry"
	"github.com/moa/backend/internal/interfaces/http/handler"
	"github.com/moa/backend/internal/interfaces/http/middleware"
	"github.com/moa/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/moa/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			MOA Marketplace API
//	@version		1.0
//	@description	Marketplace backend for artisanal products from indigenous communities across Latin America.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/moa/backend
//	@contact.email	suporte@moa.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8000
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

// version is injected at build time via -ldflags "-X main.version=v1.2.3"
var version string

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

	log.Info("Starting MOA Marketplace API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Ship application logs to the collector alongside traces and
	// metrics; the bridged logger tees every entry to the local output
	// and OTLP.
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	if logsProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: logsProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
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

	// Apply pending schema migrations before anything touches the tables
	if cfg.Database.MigrateOnBoot {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to unwrap sql.DB for migrations", zap.Error(err))
		}
		migrator, err := migration.New(sqlDB, log)
		if err != nil {
			log.Fatal("Failed to initialize migrator", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			log.Fatal("Failed to apply database migrations", zap.Error(err))
		}
		log.Info("Database migrations applied")
	}

	// Initialize distributed tracing
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize metrics export
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Instrument GORM with tracing spans
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Database and business metrics only make sense with a real meter
	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		meter := meterProvider.Meter("moa-backend")

		dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
		dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
		dbMetrics, err := telemetry.NewDBMetrics(meter, dbMetricsCfg, log)
		if err != nil {
			log.Warn("Failed to initialize database metrics", zap.Error(err))
		} else {
			if sqlDB, dbErr := db.DB.DB(); dbErr == nil {
				dbMetrics.SetSQLDB(sqlDB)
			}
			dbMetrics.StartPoolStatsCollection(ctx)
			defer dbMetrics.Stop()
			if useErr := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); useErr != nil {
				log.Warn("Failed to register database metrics plugin", zap.Error(useErr))
			}
		}

		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meter,
			Logger:          log,
			CatalogProvider: telemetry.NewGormCatalogMetricsProvider(db.DB, 0),
			OrderProvider:   telemetry.NewGormOrderMetricsProvider(db.DB),
			EventProvider:   event.GlobalIdempotencyMetrics,
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(ctx, 0)
			defer businessMetrics.Stop()
		}
		log.Info("Telemetry metrics enabled", zap.String("endpoint", cfg.Telemetry.CollectorEndpoint))
	}

	// Continuous profiling via Pyroscope
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.PyroscopeEnabled,
		ServerAddress:     cfg.Telemetry.PyroscopeAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileInuseSpace: true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Warn("Failed to start continuous profiler", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		if tracerProvider.IsEnabled() && profiler.IsEnabled() {
			if err := tracerProvider.EnableSpanProfiles(); err != nil {
				log.Warn("Failed to enable span profiles", zap.Error(err))
			}
		}
	}

	// Redis backs the token blacklist and checkout idempotency; both degrade
	// to in-memory stores so a Redis outage does not take the API down.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		_ = redisClient.Close()
	}()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	redisErr := redisClient.Ping(pingCtx).Err()
	cancelPing()

	var tokenBlacklist auth.TokenBlacklist
	var checkoutStore orderapp.IdempotencyStore
	if redisErr != nil {
		log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(redisErr))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
		checkoutStore = cache.NewInMemoryCheckoutStore()
	} else {
		log.Info("Redis connected", zap.String("addr", cfg.Redis.RedisAddr()))
		tokenBlacklist = auth.NewRedisTokenBlacklistWithClient(redisClient)
		checkoutStore = cache.NewRedisCheckoutStore(redisClient)
	}

	// Event idempotency store (deduplicates event deliveries to handlers)
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	permissionRepo := persistence.NewGormPermissionRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer, event.WithMaxRetries(cfg.Event.MaxRetries))

	// In-memory event bus dispatches events to local handlers
	eventBus := event.NewInMemoryEventBus(log)

	lowStockHandler := catalogapp.NewLowStockAlertHandler(log).
		WithNotifier(catalogapp.NewLoggingStockAlertNotifier(log))
	eventBus.Subscribe(event.NewIdempotentHandler(lowStockHandler, idempotencyStore, log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}),
		event.WithIdempotencyMetrics(event.GlobalIdempotencyMetrics),
	))
	log.Info("Event handlers registered", zap.Strings("event_types", lowStockHandler.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// With the processor enabled, events are written to the outbox in the
	// same transaction as the aggregate and relayed asynchronously.
	// Without it, events are dispatched in-process with no durability.
	var eventPublisher shared.EventPublisher = eventBus
	if cfg.Event.ProcessorEnabled {
		eventPublisher = event.NewDurablePublisher(db.DB, outboxPublisher)

		processorCfg := event.DefaultOutboxProcessorConfig()
		processorCfg.BatchSize = cfg.Event.BatchSize
		processorCfg.PollInterval = cfg.Event.PollInterval
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		processorCfg.CleanupRetention = cfg.Event.CleanupRetention

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorCfg, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorCfg.BatchSize),
			zap.Duration("poll_interval", processorCfg.PollInterval),
		)
	} else {
		log.Warn("Outbox processor disabled, events are dispatched in-process only")
	}

	// Object storage for product images (S3-compatible, MinIO in dev)
	var objectStorage catalogapp.ObjectStorage
	s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiry(cfg.Storage.PresignExpiry),
	)
	if err != nil {
		log.Warn("Object storage unavailable, using stub storage", zap.Error(err))
		objectStorage = storage.NewStubObjectStorage()
	} else {
		bucketCtx, cancelBucket := context.WithTimeout(ctx, 10*time.Second)
		if err := s3Storage.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Could not ensure storage bucket exists",
				zap.String("bucket", cfg.Storage.Bucket),
				zap.Error(err),
			)
		}
		cancelBucket()
		objectStorage = s3Storage
		log.Info("Object storage initialized", zap.String("bucket", cfg.Storage.Bucket))
	}

	// Stripe gateway is optional: without a key the API still runs, but
	// payment intent creation reports payments as not configured.
	var paymentGateway orderapp.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		stripeGateway, err := payment.NewStripeGateway(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
		}
		paymentGateway = stripeGateway
		log.Info("Stripe payment gateway initialized")
	} else {
		log.Warn("Stripe secret key not set, payment processing is disabled")
	}

	// Headless Chrome renderer for order receipt PDFs
	pdfRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		NoSandbox:       true,
		PrintBackground: true,
		Logger:          log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := pdfRenderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	receiptRenderer := printing.NewOrderReceiptRenderer(pdfRenderer, log)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize application services
	authService := identityapp.NewAuthService(userRepo, roleRepo, jwtService, tokenBlacklist,
		identityapp.DefaultAuthServiceConfig(), log)
	userService := identityapp.NewUserService(userRepo, roleRepo, log)
	roleService := identityapp.NewRoleService(roleRepo, userRepo, permissionRepo, log)
	permissionService := identityapp.NewPermissionService(permissionRepo, roleRepo, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo)
	productService := catalogapp.NewProductService(productRepo, categoryRepo)
	imageService := catalogapp.NewProductImageService(productRepo, objectStorage)
	imageService.SetConfig(catalogapp.ProductImageServiceConfig{
		UploadURLExpiry: cfg.Storage.PresignExpiry,
	})
	orderService := orderapp.NewOrderService(orderRepo, productRepo, checkoutStore,
		orderapp.DefaultOrderServiceConfig(), log)
	paymentService := orderapp.NewPaymentService(orderRepo, paymentGateway, log)
	receiptService := orderapp.NewReceiptService(orderRepo, userRepo, receiptRenderer, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Wire the event publisher into services that emit domain events
	authService.SetEventPublisher(eventPublisher)
	userService.SetEventPublisher(eventPublisher)
	roleService.SetEventPublisher(eventPublisher)
	categoryService.SetEventPublisher(eventPublisher)
	productService.SetEventPublisher(eventPublisher)
	orderService.SetEventPublisher(eventPublisher)
	paymentService.SetEventPublisher(eventPublisher)

	if businessMetrics != nil {
		authService.SetBusinessMetrics(businessMetrics)
		productService.SetBusinessMetrics(businessMetrics)
		orderService.SetBusinessMetrics(businessMetrics)
		paymentService.SetBusinessMetrics(businessMetrics)
	}

	// Background scheduler auto-cancels pending orders past their TTL
	schedulerCfg := scheduler.DefaultOrderExpirySchedulerConfig()
	schedulerCfg.Enabled = cfg.Order.AutoCancelEnabled
	schedulerCfg.CheckInterval = cfg.Order.ExpiryCheckInterval
	schedulerCfg.PendingTTL = cfg.Order.PendingTTL

	expiryScheduler, err := scheduler.NewOrderExpiryScheduler(schedulerCfg, orderService, log)
	if err != nil {
		log.Fatal("Failed to create order expiry scheduler", zap.Error(err))
	}
	if businessMetrics != nil {
		expiryScheduler.SetBusinessMetrics(businessMetrics)
	}
	if err := expiryScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start order expiry scheduler", zap.Error(err))
	}
	defer func() {
		if err := expiryScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping order expiry scheduler", zap.Error(err))
		}
	}()
	if schedulerCfg.Enabled {
		log.Info("Order expiry scheduler started",
			zap.Duration("check_interval", schedulerCfg.CheckInterval),
			zap.Duration("pending_ttl", schedulerCfg.PendingTTL),
		)
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	productHandler := handler.NewProductHandler(productService, imageService)
	orderHandler := handler.NewOrderHandler(orderService, paymentService, receiptService)
	webhookHandler := handler.NewPaymentWebhookHandler(paymentService)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler(version)

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

	engine.Use(middleware.RequestID())
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

	// Telemetry middlewares (no-ops when the providers are disabled)
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled: cfg.Telemetry.PyroscopeEnabled,
	}))

	// Body size limit and per-request deadline
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health and service metadata endpoints (outside API versioning)
	engine.GET("/health", healthHandler(db, redisClient, log))
	engine.GET("/health/ready", readinessHandler(db))
	engine.GET("/health/live", livenessHandler())
	engine.GET("/ping", systemHandler.Ping)
	engine.GET("/version", systemHandler.Version)

	// JWT authentication middleware with the default skip lists: auth
	// endpoints, the Stripe webhook, health endpoints, and public catalog
	// reads (GET on categories/products attaches claims when present).
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = tokenBlacklist
	jwtConfig.Logger = log
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	// Swagger documentation endpoint, gated by config
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:     cfg.Swagger.Enabled,
				RequireAuth: cfg.Swagger.RequireAuth,
				AllowedIPs:  cfg.Swagger.AllowedIPs,
			}, jwtMiddleware),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
		log.Info("Swagger UI enabled", zap.Bool("require_auth", cfg.Swagger.RequireAuth))
	}

	// Stripe webhook endpoint (authenticated by signature, not JWT)
	engine.POST("/api/v1/payments/stripe/webhook", webhookHandler.HandleStripeWebhook)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtMiddleware)

	// Stricter per-IP throttle for credential endpoints
	var authThrottle gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authThrottle = middleware.RateLimitByKey(authLimiter, func(c *gin.Context) string {
			return "auth:" + c.ClientIP()
		})
		log.Info("Auth rate limiting enabled",
			zap.Int("requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.AuthRateLimitWindow),
		)
	}

	// Authentication and session routes
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if authThrottle != nil {
		authRoutes.POST("/register", authThrottle, authHandler.Register)
		authRoutes.POST("/login", authThrottle, authHandler.Login)
	} else {
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// User management routes. Self-service routes under /me carry no
	// permission requirement; administration requires users.* permissions.
	// A user may always read their own record.
	selfOrUserRead := func(claims *auth.Claims, c *gin.Context) bool {
		return claims.UserID == c.Param("id") || claims.HasPermission("users.read")
	}
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.PUT("/me", userHandler.UpdateMe)
	userRoutes.GET("/me/addresses", userHandler.ListMyAddresses)
	userRoutes.POST("/me/addresses", userHandler.AddMyAddress)
	userRoutes.DELETE("/me/addresses/:index", userHandler.RemoveMyAddress)
	userRoutes.POST("", middleware.RequirePermission("users.create"), userHandler.Create)
	userRoutes.GET("", middleware.RequirePermission("users.read"), userHandler.List)
	userRoutes.GET("/stats/count", middleware.RequirePermission("users.read"), userHandler.Count)
	userRoutes.GET("/:id", middleware.RequireCustomPermission(selfOrUserRead), userHandler.GetByID)
	userRoutes.PUT("/:id", middleware.RequirePermission("users.update"), userHandler.Update)
	userRoutes.DELETE("/:id", middleware.RequirePermission("users.delete"), userHandler.Delete)
	userRoutes.POST("/:id/activate", middleware.RequirePermission("users.update"), userHandler.Activate)
	userRoutes.POST("/:id/deactivate", middleware.RequirePermission("users.update"), userHandler.Deactivate)
	userRoutes.POST("/:id/lock", middleware.RequirePermission("users.update"), userHandler.Lock)
	userRoutes.POST("/:id/unlock", middleware.RequirePermission("users.update"), userHandler.Unlock)
	userRoutes.POST("/:id/reset-password", middleware.RequirePermission("users.update"), userHandler.ResetPassword)
	userRoutes.POST("/:id/roles", middleware.RequireAllPermissions("users.manage_roles", "roles.read"), userHandler.AssignRoles)

	// Role management routes
	roleRoutes := router.NewDomainGroup("roles", "/roles")
	roleRoutes.POST("", middleware.RequirePermission("roles.create"), roleHandler.Create)
	// Role listings are also open to staff who assign roles to users.
	roleRoutes.GET("", middleware.RequireAnyPermission("roles.read", "users.manage_roles"), roleHandler.List)
	roleRoutes.GET("/:id", middleware.RequireAnyPermission("roles.read", "users.manage_roles"), roleHandler.GetByID)
	roleRoutes.PUT("/:id", middleware.RequirePermission("roles.update"), roleHandler.Update)
	roleRoutes.DELETE("/:id", middleware.RequirePermission("roles.delete"), roleHandler.Delete)
	roleRoutes.PUT("/:id/permissions", middleware.RequirePermission("roles.manage_permissions"), roleHandler.SetPermissions)
	roleRoutes.POST("/:id/permissions", middleware.RequirePermission("roles.manage_permissions"), roleHandler.GrantPermission)
	roleRoutes.DELETE("/:id/permissions/:code", middleware.RequirePermission("roles.manage_permissions"), roleHandler.RevokePermission)

	// Permission catalog routes. Pure CRUD, so the method-derived
	// permissions.{read,create,update,delete} guard covers the whole group.
	permissionRoutes := router.NewDomainGroup("permissions", "/permissions")
	permissionRoutes.Use(middleware.RequireResource("permissions"))
	permissionRoutes.POST("", permissionHandler.Create)
	permissionRoutes.POST("/bulk", permissionHandler.BulkCreate)
	permissionRoutes.GET("", permissionHandler.List)
	permissionRoutes.GET("/resources/list", permissionHandler.ListResources)
	permissionRoutes.GET("/resources/:resource/actions", permissionHandler.ActionsForResource)
	permissionRoutes.GET("/grouped-by-resource", permissionHandler.Grouped)
	permissionRoutes.GET("/stats", permissionHandler.Stats)
	permissionRoutes.GET("/:id", permissionHandler.GetByID)
	permissionRoutes.PUT("/:id", permissionHandler.Update)
	permissionRoutes.DELETE("/:id", permissionHandler.Delete)

	// Category routes. Reads are public storefront endpoints; writes are
	// restricted to curators with categories.* permissions.
	categoryRoutes := router.NewDomainGroup("categories", "/categories")
	categoryRoutes.GET("", categoryHandler.List)
	categoryRoutes.GET("/:id", categoryHandler.Get)
	categoryRoutes.POST("", middleware.RequirePermission("categories.create"), categoryHandler.Create)
	categoryRoutes.PUT("/:id", middleware.RequirePermission("categories.update"), categoryHandler.Update)
	categoryRoutes.POST("/:id/activate", middleware.RequirePermission("categories.update"), categoryHandler.Activate)
	categoryRoutes.POST("/:id/deactivate", middleware.RequirePermission("categories.update"), categoryHandler.Deactivate)
	categoryRoutes.DELETE("/:id", middleware.RequirePermission("categories.delete"), categoryHandler.Delete)

	// Product routes. Reads are public; ownership and moderation rules are
	// enforced in the service layer from the actor's claims.
	productRoutes := router.NewDomainGroup("products", "/products")
	productRoutes.POST("", productHandler.Create)
	productRoutes.GET("", productHandler.List)
	productRoutes.GET("/stats/count", productHandler.CountByStatus)
	productRoutes.GET("/:id", productHandler.Get)
	productRoutes.PUT("/:id", productHandler.Update)
	productRoutes.PUT("/:id/price", productHandler.ChangePrice)
	productRoutes.POST("/:id/publish", productHandler.Publish)
	productRoutes.POST("/:id/archive", productHandler.Archive)
	productRoutes.POST("/:id/stock", productHandler.AdjustStock)
	productRoutes.DELETE("/:id", productHandler.Delete)
	productRoutes.POST("/:id/images/presign", productHandler.PresignImageUpload)
	productRoutes.POST("/:id/images", productHandler.AttachImage)
	productRoutes.DELETE("/:id/images/:imageID", productHandler.RemoveImage)
	productRoutes.PUT("/:id/images/:imageID/primary", productHandler.SetPrimaryImage)

	// Order routes. Buyers see their own orders, sellers the orders holding
	// their products; the service layer scopes every query by actor.
	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/stats", orderHandler.Stats)
	orderRoutes.GET("/:id", orderHandler.Get)
	orderRoutes.POST("/:id/cancel", orderHandler.Cancel)
	orderRoutes.POST("/:id/ship", orderHandler.Ship)
	orderRoutes.POST("/:id/deliver", orderHandler.Deliver)
	orderRoutes.POST("/:id/payment-intent", orderHandler.CreatePaymentIntent)
	orderRoutes.GET("/:id/receipt", orderHandler.Receipt)

	// Operational routes for the event outbox (dead letter inspection).
	// Denied attempts against admin endpoints are worth a log line.
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.Use(middleware.RequireAnyPermissionWithConfig(
		middleware.PermissionConfig{Logger: log}, "system.manage"))
	adminRoutes.GET("/outbox/stats", outboxHandler.Stats)
	adminRoutes.GET("/outbox/dead", outboxHandler.ListDead)
	adminRoutes.GET("/outbox/entries/:id", outboxHandler.GetEntry)
	adminRoutes.POST("/outbox/dead/:id/retry", outboxHandler.RetryDead)
	adminRoutes.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDead)

	// Register all domain groups
	r.Register(authRoutes).
		Register(userRoutes).
		Register(roleRoutes).
		Register(permissionRoutes).
		Register(categoryRoutes).
		Register(productRoutes).
		Register(orderRoutes).
		Register(adminRoutes)

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

// healthHandler reports overall service health. The database is required;
// Redis degradation is reported but keeps the service available.
func healthHandler(db *persistence.Database, redisClient *redis.Client, _ *zap.Logger) gin.HandlerFunc {
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

		status := "healthy"
		redisStatus := "ok"
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			status = "degraded"
			redisStatus = "error"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
			"redis":    redisStatus,
		})
	}
}

// readinessHandler signals whether the service can accept traffic
func readinessHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// livenessHandler signals that the process is alive
func livenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	}
}
