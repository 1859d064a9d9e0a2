package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/railbird/chipsettle/internal/adapter/http/handler"
	"github.com/railbird/chipsettle/internal/adapter/http/middleware"
	"github.com/railbird/chipsettle/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	SessionHandler     *handler.SessionHandler
	LedgerHandler      *handler.LedgerHandler
	SettlementHandler  *handler.SettlementHandler
	ConsistencyHandler *handler.ConsistencyHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cfg.SessionHandler.Create)
			r.Get("/", cfg.SessionHandler.List)
			r.Get("/{id}", cfg.SessionHandler.Get)
			r.Get("/{id}/players", cfg.SessionHandler.ListPlayers)
			r.Post("/{id}/players", cfg.SessionHandler.AddPlayer)
			r.Get("/{id}/transactions", cfg.SessionHandler.ListTransactions)
			r.Post("/{id}/buy-ins", cfg.LedgerHandler.RecordBuyIn)
			r.Post("/{id}/cash-outs", cfg.LedgerHandler.RecordCashOut)
			r.Post("/{id}/settlement", cfg.SettlementHandler.Settle)
			r.Get("/{id}/settlement", cfg.SettlementHandler.GetLatest)
			r.Get("/{id}/consistency", cfg.ConsistencyHandler.Check)
		})

		// Settlements
		r.Route("/settlements", func(r chi.Router) {
			r.Post("/preview", cfg.SettlementHandler.Preview)
			r.Post("/compare", cfg.SettlementHandler.Compare)
			r.Get("/{id}", cfg.SettlementHandler.Get)
			r.Get("/{id}/proof", cfg.SettlementHandler.GetProof)
		})

		// Proofs
		r.Post("/proofs/verify", cfg.SettlementHandler.VerifyProof)
	})

	return r
}
