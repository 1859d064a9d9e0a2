package integration

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	adaptershttp "github.com/railbird/chipsettle/internal/adapter/http"
	"github.com/railbird/chipsettle/internal/adapter/http/handler"
	"github.com/railbird/chipsettle/internal/adapter/repository/postgres"
	redisrepo "github.com/railbird/chipsettle/internal/adapter/repository/redis"
	infraredis "github.com/railbird/chipsettle/internal/infrastructure/redis"
	"github.com/railbird/chipsettle/internal/usecase"
	"github.com/railbird/chipsettle/tests/testutil"
)

// testStack bundles the fully wired use cases and router for one test.
type testStack struct {
	Router       http.Handler
	SessionUC    *usecase.SessionUseCase
	LedgerUC     *usecase.LedgerUseCase
	SettlementUC *usecase.SettlementUseCase
	OutboxRepo   *postgres.OutboxRepository
}

func newTestStack(t *testing.T, testDB *testutil.TestDB) *testStack {
	t.Helper()

	ctx := context.Background()
	pool := testDB.Pool

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	txManager := postgres.NewTxManager(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	playerRepo := postgres.NewPlayerRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	settlementRepo := postgres.NewSettlementRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	retrier := postgres.NewRetrier()
	idGen := postgres.NewULIDGenerator()
	cache := redisrepo.NewCache(redisClient)
	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)

	validator := usecase.NewTransactionValidator(usecase.ValidatorConfig{
		MinBuyIn:   decimal.RequireFromString("0.01"),
		MaxBuyIn:   decimal.NewFromInt(100000),
		MinCashOut: decimal.RequireFromString("0.01"),
		MaxCashOut: decimal.NewFromInt(100000),
	})
	optimizer := usecase.NewSettlementOptimizer(idGen)
	proofEngine := usecase.NewProofEngine(idGen, []byte("integration-test-key"))
	comparator := usecase.NewAlternativeComparator()

	sessionUC := usecase.NewSessionUseCase(txManager, sessionRepo, playerRepo, txnRepo, outboxRepo, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, sessionRepo, playerRepo, txnRepo, outboxRepo, validator, retrier, idGen, nil)
	settlementUC := usecase.NewSettlementUseCase(txManager, sessionRepo, playerRepo, settlementRepo, outboxRepo, optimizer, proofEngine, comparator, cache, idGen, nil)
	consistencyUC := usecase.NewConsistencyUseCase(sessionRepo, playerRepo, txnRepo)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		SessionHandler:     handler.NewSessionHandler(sessionUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		SettlementHandler:  handler.NewSettlementHandler(settlementUC),
		ConsistencyHandler: handler.NewConsistencyHandler(consistencyUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
	})

	return &testStack{
		Router:       router,
		SessionUC:    sessionUC,
		LedgerUC:     ledgerUC,
		SettlementUC: settlementUC,
		OutboxRepo:   outboxRepo,
	}
}
