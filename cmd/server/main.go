package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/railbird/chipsettle/internal/adapter/http"
	"github.com/railbird/chipsettle/internal/adapter/http/handler"
	"github.com/railbird/chipsettle/internal/adapter/http/middleware"
	postgresRepo "github.com/railbird/chipsettle/internal/adapter/repository/postgres"
	redisRepo "github.com/railbird/chipsettle/internal/adapter/repository/redis"
	"github.com/railbird/chipsettle/internal/infrastructure/config"
	"github.com/railbird/chipsettle/internal/infrastructure/eventpublisher"
	"github.com/railbird/chipsettle/internal/infrastructure/logger"
	"github.com/railbird/chipsettle/internal/infrastructure/metrics"
	"github.com/railbird/chipsettle/internal/infrastructure/postgres"
	"github.com/railbird/chipsettle/internal/infrastructure/redis"
	"github.com/railbird/chipsettle/internal/usecase"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = zl

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	sessionRepo := postgresRepo.NewSessionRepository(pool)
	playerRepo := postgresRepo.NewPlayerRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	settlementRepo := postgresRepo.NewSettlementRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier()
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	validatorCfg, err := validatorConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid transaction bounds")
	}
	validator := usecase.NewTransactionValidator(validatorCfg)
	optimizer := usecase.NewSettlementOptimizer(idGen)
	proofEngine := usecase.NewProofEngine(idGen, []byte(cfg.ProofSigningKey))
	comparator := usecase.NewAlternativeComparator()

	m := metrics.New()

	sessionUC := usecase.NewSessionUseCase(txManager, sessionRepo, playerRepo, txnRepo, outboxRepo, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, sessionRepo, playerRepo, txnRepo, outboxRepo, validator, retrier, idGen, m)
	settlementUC := usecase.NewSettlementUseCase(txManager, sessionRepo, playerRepo, settlementRepo, outboxRepo, optimizer, proofEngine, comparator, cache, idGen, m)
	consistencyUC := usecase.NewConsistencyUseCase(sessionRepo, playerRepo, txnRepo)

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(sessionUC)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	settlementHandler := handler.NewSettlementHandler(settlementUC)
	consistencyHandler := handler.NewConsistencyHandler(consistencyUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SessionHandler:     sessionHandler,
		LedgerHandler:      ledgerHandler,
		SettlementHandler:  settlementHandler,
		ConsistencyHandler: consistencyHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		Logger:             zl,
	})

	// Start outbox publisher
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(nil),
		BatchSize:  cfg.PublisherBatchSize,
		Interval:   cfg.PublisherInterval,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func validatorConfig(cfg *config.Config) (usecase.ValidatorConfig, error) {
	minBuyIn, err := decimal.NewFromString(cfg.MinBuyIn)
	if err != nil {
		return usecase.ValidatorConfig{}, fmt.Errorf("MIN_BUY_IN: %w", err)
	}
	maxBuyIn, err := decimal.NewFromString(cfg.MaxBuyIn)
	if err != nil {
		return usecase.ValidatorConfig{}, fmt.Errorf("MAX_BUY_IN: %w", err)
	}
	minCashOut, err := decimal.NewFromString(cfg.MinCashOut)
	if err != nil {
		return usecase.ValidatorConfig{}, fmt.Errorf("MIN_CASH_OUT: %w", err)
	}
	maxCashOut, err := decimal.NewFromString(cfg.MaxCashOut)
	if err != nil {
		return usecase.ValidatorConfig{}, fmt.Errorf("MAX_CASH_OUT: %w", err)
	}

	return usecase.ValidatorConfig{
		MinBuyIn:   minBuyIn,
		MaxBuyIn:   maxBuyIn,
		MinCashOut: minCashOut,
		MaxCashOut: maxCashOut,
	}, nil
}
