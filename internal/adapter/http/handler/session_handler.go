package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railbird/chipsettle/internal/adapter/http/dto"
	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// SessionService defines the behavior needed by SessionHandler.
type SessionService interface {
	CreateSession(ctx context.Context, input usecase.CreateSessionInput) (*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, input usecase.ListSessionsInput) ([]*domain.Session, error)
	AddPlayer(ctx context.Context, input usecase.AddPlayerInput) (*domain.Player, domain.ValidationResult, error)
	ListPlayers(ctx context.Context, sessionID string) ([]*domain.Player, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

// SessionHandler handles session and roster HTTP requests.
type SessionHandler struct {
	sessionUC SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionUC SessionService) *SessionHandler {
	return &SessionHandler{sessionUC: sessionUC}
}

// Create creates a new session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	session, err := h.sessionUC.CreateSession(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create session", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.SessionFromDomain(session))
}

// Get retrieves a session by ID.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	session, err := h.sessionUC.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get session", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionFromDomain(session))
}

// List lists sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	sessions, err := h.sessionUC.ListSessions(r.Context(), usecase.ListSessionsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListSessionsResponse{
		Sessions: dto.SessionsFromDomain(sessions),
		Total:    int64(len(sessions)),
	})
}

// AddPlayer adds a player to a session.
func (h *SessionHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	var req dto.AddPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	player, result, err := h.sessionUC.AddPlayer(r.Context(), usecase.AddPlayerInput{
		SessionID: sessionID,
		Name:      req.Name,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add player", err.Error())
		return
	}

	if !result.IsValid {
		writeValidationFailure(w, result)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PlayerFromDomain(player))
}

// ListPlayers lists the session roster.
func (h *SessionHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	players, err := h.sessionUC.ListPlayers(r.Context(), sessionID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list players", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListPlayersResponse{
		Players: dto.PlayersFromDomain(players),
		Total:   int64(len(players)),
	})
}

// ListTransactions lists the session's committed transactions.
func (h *SessionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	txns, err := h.sessionUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		SessionID: sessionID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Total:        int64(len(txns)),
	})
}
