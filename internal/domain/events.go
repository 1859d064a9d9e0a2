package domain

import "time"

// Event types
const (
	EventTypeSessionCreated       = "session.created"
	EventTypePlayerJoined         = "player.joined"
	EventTypeTransactionCommitted = "transaction.committed"
	EventTypeSessionSettled       = "session.settled"
)

// Aggregate types
const (
	AggregateTypeSession     = "session"
	AggregateTypePlayer      = "player"
	AggregateTypeTransaction = "transaction"
	AggregateTypeSettlement  = "settlement"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// SessionCreatedEvent payload
type SessionCreatedEvent struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
}

// PlayerJoinedEvent payload
type PlayerJoinedEvent struct {
	PlayerID  string `json:"player_id"`
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// TransactionCommittedEvent payload
type TransactionCommittedEvent struct {
	TransactionID string `json:"transaction_id"`
	SessionID     string `json:"session_id"`
	PlayerID      string `json:"player_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	PotAfter      string `json:"pot_after"`
}

// SessionSettledEvent payload
type SessionSettledEvent struct {
	SettlementID string `json:"settlement_id"`
	SessionID    string `json:"session_id"`
	PaymentCount int    `json:"payment_count"`
	ProofValid   bool   `json:"proof_valid"`
}
