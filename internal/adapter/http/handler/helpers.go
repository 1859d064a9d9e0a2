package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/railbird/chipsettle/internal/adapter/http/dto"
	"github.com/railbird/chipsettle/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeValidationFailure writes a rejected ValidationResult. Business-rule
// rejections are expected outcomes, carried as 422 with the full result body
// so clients can render the exact code and required amount.
func writeValidationFailure(w http.ResponseWriter, result domain.ValidationResult) {
	writeJSON(w, http.StatusUnprocessableEntity, result)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrSettlementNotFound),
		errors.Is(err, domain.ErrProofNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSessionName),
		errors.Is(err, domain.ErrInvalidPlayerName),
		errors.Is(err, domain.ErrInvalidCurrencyCode),
		errors.Is(err, domain.ErrUnbalancedNetPositions),
		errors.Is(err, domain.ErrSingleNonZeroPosition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrPlayersStillActive),
		errors.Is(err, domain.ErrPotNotEmpty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
