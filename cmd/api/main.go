package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-service/config"
	httpHandler "account-service/internal/adapter/http/handler"
	pgStorage "account-service/internal/adapter/storage/postgres"
	redisStorage "account-service/internal/adapter/storage/redis"
	"account-service/internal/core/ports"
	"account-service/internal/service"
	"account-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Account Service")

	dailyLimit, err := cfg.Limits.ParseDailyTransferLimit()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid daily transfer limit")
	}
	log.Info().Str("daily_transfer_limit", dailyLimit.String()).Msg("Transfer limits loaded")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Apply schema migrations
	if err := pgStorage.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Seed accounts from CSV when the table is empty
	if cfg.Seed.CSVPath != "" {
		seeder := pgStorage.NewSeeder(pool, log)
		if err := seeder.Run(ctx, cfg.Seed.CSVPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed accounts")
		}
	}

	// Initialize business services
	accountSvc := service.NewAccountService(accountRepo, log)
	transferSvc := service.NewTransferService(accountRepo, txRepo, transactor, dailyLimit, log)

	// Health checkers
	healthCheckers := []ports.HealthChecker{pgStorage.NewHealthCheck(pool)}

	// Redis is optional: without it the service runs with rate limiting off.
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Warn().Msg("Redis disabled, rate limiting off")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		TransferSvc:    transferSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
