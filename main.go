package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motovlabs/vastserve/internal/config"
	"github.com/motovlabs/vastserve/internal/database"
	"github.com/motovlabs/vastserve/internal/geo"
	"github.com/motovlabs/vastserve/internal/httpserver"
	"github.com/motovlabs/vastserve/internal/metrics"
	"github.com/motovlabs/vastserve/internal/middleware"
	"github.com/motovlabs/vastserve/internal/storage"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use logger yet, fall back to panic
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	logger, err := middleware.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("starting vastserve",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL when enabled, otherwise serve from memory
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		db, err = database.NewPostgresDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
		}
		defer db.Close()
	} else {
		logger.Info("database disabled, using in-memory storage")
	}

	// Initialize Redis
	var rdb *database.RedisDB
	if cfg.Redis.Enabled {
		rdb, err = database.NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	// Initialize the ClickHouse analytics sink
	var sink storage.EventSink
	if cfg.ClickHouse.Enabled {
		chSink, err := storage.NewClickHouseEventSink(ctx, storage.ClickHouseConfig{
			Enabled:       cfg.ClickHouse.Enabled,
			Addr:          cfg.ClickHouse.Addr,
			Database:      cfg.ClickHouse.Database,
			User:          cfg.ClickHouse.User,
			Password:      cfg.ClickHouse.Password,
			FlushInterval: cfg.ClickHouse.FlushInterval,
			BatchSize:     cfg.ClickHouse.BatchSize,
		}, logger)
		if err != nil {
			logger.Warn("failed to connect to ClickHouse, analytics disabled", zap.Error(err))
		} else {
			sink = chSink
			defer chSink.Close()
		}
	}

	// Initialize GeoIP provider
	var geoProvider geo.Provider
	if cfg.Geo.Enabled {
		provider, err := geo.NewMaxMindProvider(cfg.Geo.DatabasePath)
		if err != nil {
			logger.Warn("failed to open GeoIP database, enrichment disabled", zap.Error(err))
		} else {
			geoProvider = provider
			defer provider.Close()
		}
	}

	// Prometheus metrics
	m := metrics.NewMetrics("vastserve")

	// Build dependencies
	deps := &httpserver.Dependencies{
		DB:      db,
		Redis:   rdb,
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Geo:     geoProvider,
		Sink:    sink,
	}

	// Create HTTP server with all middlewares
	handler := httpserver.NewServer(deps)

	// Apply middleware chain (order matters: outermost first)
	// Recovery -> Logging -> RateLimit -> Auth -> Handler
	recoveryMW := middleware.NewRecoveryMiddleware(logger)
	loggingMW := middleware.NewLoggingMiddleware(logger)
	rateLimitMW := middleware.NewRateLimitMiddleware(cfg.RateLimit, logger)
	authMW := middleware.NewAuthMiddleware(cfg.Auth, logger)

	finalHandler := recoveryMW.Handler(
		loggingMW.Handler(
			rateLimitMW.Handler(
				authMW.Handler(handler),
			),
		),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           finalHandler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Start rate limiter cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateLimitMW.CleanupIPLimiters()
			case <-ctx.Done():
				return
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Cancel main context to stop background goroutines
	cancel()

	logger.Info("server stopped")
}
