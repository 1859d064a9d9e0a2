package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Session metrics
	SessionsCreated   prometheus.Counter
	SessionsSettled   prometheus.Counter
	PlayersJoined     prometheus.Counter
	SessionOperations *prometheus.CounterVec

	// Transaction metrics
	TransactionsCommitted *prometheus.CounterVec
	TransactionsRejected  *prometheus.CounterVec
	TransactionAmount     *prometheus.HistogramVec
	TransactionDuration   prometheus.Histogram

	// Settlement metrics
	SettlementsComputed  prometheus.Counter
	SettlementDuration   prometheus.Histogram
	PaymentInstructions  prometheus.Histogram
	PaymentReduction     prometheus.Histogram
	ProofVerifications   *prometheus.CounterVec
	ConsistencyChecks    *prometheus.CounterVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	OutboxBacklog   prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Session metrics
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chipsettle_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chipsettle_sessions_settled_total",
			Help: "Total number of sessions settled",
		}),
		PlayersJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chipsettle_players_joined_total",
			Help: "Total number of players added to sessions",
		}),
		SessionOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_session_operations_total",
				Help: "Total session operations by type",
			},
			[]string{"operation"},
		),

		// Transaction metrics
		TransactionsCommitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_transactions_committed_total",
				Help: "Total committed transactions by type",
			},
			[]string{"type"},
		),
		TransactionsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_transactions_rejected_total",
				Help: "Total rejected transactions by validation code",
			},
			[]string{"type", "code"},
		),
		TransactionAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chipsettle_transaction_amount",
				Help:    "Transaction amounts",
				Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
			},
			[]string{"type"},
		),
		TransactionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chipsettle_transaction_duration_seconds",
			Help:    "Duration of transaction commits",
			Buckets: prometheus.DefBuckets,
		}),

		// Settlement metrics
		SettlementsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chipsettle_settlements_computed_total",
			Help: "Total number of settlements computed",
		}),
		SettlementDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chipsettle_settlement_duration_seconds",
			Help:    "Duration of settlement computation",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentInstructions: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chipsettle_payment_instructions",
			Help:    "Number of payment instructions per settlement",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		PaymentReduction: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chipsettle_payment_reduction_percentage",
			Help:    "Payment count reduction versus the direct pairwise baseline",
			Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
		}),
		ProofVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_proof_verifications_total",
				Help: "Total proof verifications by outcome",
			},
			[]string{"outcome"},
		),
		ConsistencyChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_consistency_checks_total",
				Help: "Total ledger consistency checks by outcome",
			},
			[]string{"outcome"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chipsettle_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "chipsettle_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Outbox metrics
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
		OutboxBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "chipsettle_outbox_backlog",
			Help: "Current number of unpublished outbox events",
		}),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chipsettle_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
