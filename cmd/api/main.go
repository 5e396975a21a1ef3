package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pesa-gateway/config"
	httpHandler "pesa-gateway/internal/adapter/http/handler"
	pgStorage "pesa-gateway/internal/adapter/storage/postgres"
	redisStorage "pesa-gateway/internal/adapter/storage/redis"
	"pesa-gateway/internal/core/fee"
	"pesa-gateway/internal/core/phone"
	"pesa-gateway/internal/core/ports"
	"pesa-gateway/internal/service"
	"pesa-gateway/internal/worker"
	"pesa-gateway/pkg/logger"
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
		Msg("Starting Pesa Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories. Compliance records are read only through
	// account status gating on this surface; pgStorage.NewComplianceRepo
	// serves the admin review tooling that runs against the same database.
	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	webhookJobRepo := pgStorage.NewWebhookJobRepo(pool)

	// Initialize Redis stores
	apiKeyCache := redisStorage.NewAPIKeyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Core domain components
	classifier := phone.NewClassifier(cfg.Charge.CountryCode)
	fees := fee.NewCalculator(cfg.Charge.FeeRateBps, cfg.Charge.FeeFixed)

	// Settlement scheduler and strategies
	scheduler := worker.NewTimerScheduler(logger.Component(log, "scheduler"))
	defer scheduler.Stop()

	webhookSvc := service.NewWebhookService(accountRepo, webhookJobRepo, logger.Component(log, "webhooks"))
	simulator := service.NewSettlementSimulator(
		txRepo, webhookSvc, scheduler,
		cfg.Simulator.Delay, cfg.Simulator.SuccessRate,
		logger.Component(log, "simulator"),
	)
	liveAdapter := service.NewLiveSettlementAdapter(txRepo, webhookSvc, logger.Component(log, "live"))

	// Business services
	authSvc := service.NewAuthService(accountRepo, apiKeyCache, logger.Component(log, "auth"))
	chargeSvc := service.NewChargeService(
		txRepo, classifier, fees, simulator, liveAdapter,
		cfg.Charge.MinAmount, cfg.Charge.DefaultCurrency, cfg.Simulator.Delay,
		logger.Component(log, "charge"),
	)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	reconciler := worker.NewReconciler(
		txRepo, webhookSvc,
		cfg.Reconcile.Interval, cfg.Reconcile.PendingCutoff,
		logger.Component(log, "reconciler"),
	)
	go reconciler.Run(workerCtx)

	webhookWorker := worker.NewWebhookWorker(
		webhookJobRepo, accountRepo,
		cfg.Webhook.Timeout, cfg.Webhook.PollInterval, cfg.Webhook.MaxAttempts,
		logger.Component(log, "webhook-worker"),
	)
	go webhookWorker.Run(workerCtx)

	// Health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		ChargeSvc:      chargeSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

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

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
