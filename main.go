// Package main provides the main entry point for the PrintSetu pricing service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/printsetu/printsetu/app/handlers"
	"github.com/printsetu/printsetu/app/middleware"
	"github.com/printsetu/printsetu/app/router"
	"github.com/printsetu/printsetu/app/services"
	businessflow "github.com/printsetu/printsetu/business_flow"
	"github.com/printsetu/printsetu/config"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/repository"
	"github.com/printsetu/printsetu/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting PrintSetu pricing service...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the process log to a rotating file when configured.
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" && cfg.Output != "both" {
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	if cfg.Output == "both" {
		log.SetOutput(io.MultiWriter(os.Stdout, rotator))
		return
	}
	log.SetOutput(rotator)
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// startMetricsServer serves Prometheus metrics on a dedicated port.
// The returned cancel function stops the server.
func startMetricsServer(cfg config.MetricsConfig) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	go func() {
		log.Printf("Metrics server starting on :%d%s", cfg.Port, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, fmt.Errorf("redis cache is required for location resolution")
	}
	stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second))

	if cfg.Metrics.Enabled && cfg.Metrics.EnablePrometheus {
		stopFuncs = append(stopFuncs, startMetricsServer(cfg.Metrics))
	}

	// Ensure a default segment exists so guest quotes always resolve
	if err := ensureDefaultSegment(db); err != nil {
		return nil, err
	}

	// Initialize repositories
	zoneRepo := repository.NewGeoZoneRepository(db)
	segmentRepo := repository.NewCustomerSegmentRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceBookRepo := repository.NewPriceBookRepository(db)
	modifierRepo := repository.NewPriceModifierRepository(db)
	chargeRepo := repository.NewAttributeChargeRepository(db)
	ruleRepo := repository.NewAvailabilityRuleRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize geo services
	locationCache := services.NewRedisLocationCache(rc, cfg.Geo.LocationCacheTTL)
	geoLookup := services.NewHTTPGeoLookupService(cfg.Geo.IPLookupURL, cfg.Geo.ReverseGeocodeURL, cfg.Geo.LookupTimeout)

	// Initialize flows
	locationFlow := businessflow.NewLocationFlow(
		locationCache,
		geoLookup,
		zoneRepo,
		auditRepo,
		cfg.Geo.LocationCacheTTL,
		cfg.Geo.GPSTimeout,
		cfg.Geo.LookupTimeout,
	)

	quoteFlow := businessflow.NewQuoteFlow(
		productRepo,
		zoneRepo,
		segmentRepo,
		customerRepo,
		priceBookRepo,
		modifierRepo,
		chargeRepo,
		ruleRepo,
		auditRepo,
		locationFlow,
	)

	authFlow := businessflow.NewAuthFlow(
		customerRepo,
		segmentRepo,
		auditRepo,
		tokenService,
		cfg.JWT.AccessTokenTTL,
	)

	pricingAdminFlow := businessflow.NewPricingAdminFlow(
		db,
		productRepo,
		zoneRepo,
		segmentRepo,
		priceBookRepo,
		modifierRepo,
		ruleRepo,
		auditRepo,
	)

	// Initialize handlers
	quoteHandler := handlers.NewQuoteHandler(quoteFlow)
	locationHandler := handlers.NewLocationHandler(locationFlow)
	authHandler := handlers.NewAuthHandler(authFlow)
	pricingAdminHandler := handlers.NewPricingAdminHandler(pricingAdminFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authMiddleware,
		quoteHandler,
		locationHandler,
		authHandler,
		pricingAdminHandler,
		cfg.Security.AllowedOrigins,
	)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureDefaultSegment seeds the guest segment when the table is empty.
func ensureDefaultSegment(db *gorm.DB) error {
	segmentRepo := repository.NewCustomerSegmentRepository(db)

	existing, err := segmentRepo.DefaultSegment(context.Background())
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	segment := models.CustomerSegment{
		Code:        "RETAIL",
		Name:        "Retail",
		Description: utils.ToPtr("Default segment for guests and unsegmented customers"),
		PricingTier: 0,
		IsDefault:   utils.ToPtr(true),
		IsActive:    utils.ToPtr(true),
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}
	if err := segmentRepo.Save(context.Background(), &segment); err != nil {
		return err
	}

	log.Println("Seeded default RETAIL segment")
	return nil
}
