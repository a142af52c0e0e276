package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	adminapp "github.com/storefront/backend/internal/application/admin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	identityapp "github.com/storefront/backend/internal/application/identity"
	traderapp "github.com/storefront/backend/internal/application/trader"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry providers. All are no-ops when telemetry is disabled.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdownProvider(log, "tracer", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdownProvider(log, "meter", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdownProvider(log, "logger", loggerProvider.Shutdown)

	// Tee application logs into the OTLP pipeline
	log = log.WithOptions(zap.WrapCore(loggerProvider.WrapZapCore))

	profiler, err := telemetry.NewProfiler(cfg.Profiler, cfg.App.Name, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, gormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithTracing(),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	traderRepo := persistence.NewGormTraderRepository(db.DB)

	// Catalog cache: Redis when available, in-memory otherwise
	cacheFactory := cache.NewCatalogCacheFactory(cfg.Redis, cache.WithLogger(log))
	catalogCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create catalog cache", zap.Error(err))
	}

	// Token blacklist shares the Redis instance with the catalog cache
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		blacklist = auth.NewRedisTokenBlacklist(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		log.Warn("Redis disabled, revoked tokens are only tracked per instance")
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Product image storage
	var images catalogapp.ImageStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ImageStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		images = s3Storage
		log.Info("Object storage configured", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		log.Warn("Object storage disabled, image uploads return stub URLs")
		images = storage.NewStubImageStorage()
	}

	// Business metrics
	storeMetrics, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{
		Meter:  meterProvider.Meter("storefront.store"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create store metrics", zap.Error(err))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, catalogCache, images, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, catalogCache, log)
	reviewService := catalogapp.NewReviewService(reviewRepo, productRepo, storeMetrics, log)
	cartService := cartapp.NewService(cartRepo, productRepo, storeMetrics, log)
	checkoutService := checkoutapp.NewService(orderRepo, cartRepo, productRepo, storeMetrics, log)
	traderService := traderapp.NewService(traderRepo, userRepo, log)
	dashboardService := adminapp.NewDashboardService(userRepo, productRepo, orderRepo, reviewRepo, traderRepo, log)

	// HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	reviewHandler := handler.NewReviewHandler(reviewService, productService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(checkoutService)
	traderHandler := handler.NewTraderHandler(traderService)
	systemHandler := handler.NewSystemHandler(db, version)
	adminHandler := handler.NewAdminHandler(dashboardService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.Enabled,
	}))

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", "Accept", "Origin", "Cache-Control"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health endpoints outside API versioning
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Public storefront surface
	catalogRoutes := router.NewDomainGroup("catalog", "/")
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/:slug", productHandler.GetBySlug)
	catalogRoutes.GET("/products/:slug/reviews", reviewHandler.ListByProduct)
	catalogRoutes.GET("/categories", categoryHandler.Tree)
	catalogRoutes.GET("/categories/:slug", categoryHandler.GetBySlug)

	// Registration, login and token refresh
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)

	// Session and profile management
	sessionRoutes := router.NewDomainGroup("session", "/auth").Use(jwtAuth)
	sessionRoutes.POST("/logout", authHandler.Logout)
	sessionRoutes.GET("/me", authHandler.Profile)
	sessionRoutes.PUT("/me", authHandler.UpdateProfile)
	sessionRoutes.PUT("/me/password", authHandler.ChangePassword)

	// Authenticated shopping surface: cart, checkout, orders, reviews,
	// trader self-service
	shopRoutes := router.NewDomainGroup("shop", "/").Use(jwtAuth)
	shopRoutes.POST("/products/:slug/reviews", reviewHandler.Submit)
	shopRoutes.GET("/cart", cartHandler.Get)
	shopRoutes.POST("/cart/items", cartHandler.AddItem)
	shopRoutes.PUT("/cart/items/:productId", cartHandler.UpdateQuantity)
	shopRoutes.DELETE("/cart/items/:productId", cartHandler.RemoveItem)
	shopRoutes.DELETE("/cart", cartHandler.Clear)
	shopRoutes.POST("/cart/sync", cartHandler.Sync)
	shopRoutes.POST("/cart/validate", cartHandler.Validate)
	shopRoutes.POST("/checkout", orderHandler.PlaceOrder)
	shopRoutes.GET("/orders", orderHandler.ListMine)
	shopRoutes.GET("/orders/:id", orderHandler.GetMine)
	shopRoutes.POST("/orders/:id/cancel", orderHandler.CancelMine)
	shopRoutes.POST("/trader/apply", traderHandler.Apply)
	shopRoutes.GET("/trader/me", traderHandler.GetMine)
	shopRoutes.PUT("/trader/me", traderHandler.UpdateMine)

	// Trader catalog management; traders only see and touch their own
	// listings
	traderRoutes := router.NewDomainGroup("trader", "/trader").
		Use(jwtAuth, middleware.RequireRole("trader", "admin"))
	traderRoutes.GET("/products", productHandler.ListManaged)
	traderRoutes.POST("/products", productHandler.Create)
	traderRoutes.GET("/products/:id", productHandler.GetByID)
	traderRoutes.PUT("/products/:id", productHandler.Update)
	traderRoutes.DELETE("/products/:id", productHandler.Delete)
	traderRoutes.POST("/products/:id/status", productHandler.SetStatus)
	traderRoutes.POST("/products/:id/images/upload-url", productHandler.GenerateImageUploadURL)

	// Admin back office
	adminRoutes := router.NewDomainGroup("admin", "/admin").
		Use(jwtAuth, middleware.RequireRole("admin"))
	adminRoutes.GET("/dashboard", adminHandler.Dashboard)
	adminRoutes.GET("/products", productHandler.ListManaged)
	adminRoutes.POST("/products", productHandler.Create)
	adminRoutes.GET("/products/:id", productHandler.GetByID)
	adminRoutes.PUT("/products/:id", productHandler.Update)
	adminRoutes.DELETE("/products/:id", productHandler.Delete)
	adminRoutes.POST("/products/:id/status", productHandler.SetStatus)
	adminRoutes.POST("/products/:id/images/upload-url", productHandler.GenerateImageUploadURL)
	adminRoutes.POST("/categories", categoryHandler.Create)
	adminRoutes.PUT("/categories/:id", categoryHandler.Update)
	adminRoutes.DELETE("/categories/:id", categoryHandler.Delete)
	adminRoutes.GET("/reviews/pending", reviewHandler.ListPending)
	adminRoutes.POST("/reviews/:id/approve", reviewHandler.Approve)
	adminRoutes.POST("/reviews/:id/reject", reviewHandler.Reject)
	adminRoutes.DELETE("/reviews/:id", reviewHandler.Delete)
	adminRoutes.GET("/orders", orderHandler.List)
	adminRoutes.GET("/orders/:id", orderHandler.Get)
	adminRoutes.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	adminRoutes.GET("/users", userHandler.List)
	adminRoutes.GET("/users/:id", userHandler.Get)
	adminRoutes.PUT("/users/:id/role", userHandler.SetRole)
	adminRoutes.POST("/users/:id/deactivate", userHandler.Deactivate)
	adminRoutes.POST("/users/:id/activate", userHandler.Activate)
	adminRoutes.GET("/traders", traderHandler.List)
	adminRoutes.GET("/traders/:id", traderHandler.Get)
	adminRoutes.POST("/traders/:id/approve", traderHandler.Approve)
	adminRoutes.POST("/traders/:id/reject", traderHandler.Reject)
	adminRoutes.POST("/traders/:id/suspend", traderHandler.Suspend)

	r.Register(catalogRoutes).
		Register(authRoutes).
		Register(sessionRoutes).
		Register(shopRoutes).
		Register(traderRoutes).
		Register(adminRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// gormLogLevel maps application log levels onto GORM's logger levels
func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

func shutdownProvider(log *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry provider",
			zap.String("provider", name),
			zap.Error(err),
		)
	}
}
