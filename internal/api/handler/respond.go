// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"matchstake/internal/util"
)

// respondWithJSON sends a JSON response shared by all handlers.
func respondWithJSON(logger *slog.Logger, w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps service sentinels to HTTP status codes.
func respondWithError(logger *slog.Logger, w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput),
		util.IsError(err, util.ErrInvalidMode),
		util.IsError(err, util.ErrStakeOutOfRange):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound),
		util.IsError(err, util.ErrAccountNotFound),
		util.IsError(err, util.ErrWagerNotFound),
		util.IsError(err, util.ErrNoActiveWager):
		statusCode = http.StatusNotFound
		message = err.Error()
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient funds"
	case util.IsError(err, util.ErrActiveWagerExists),
		util.IsError(err, util.ErrMatchAlreadySettled),
		util.IsError(err, util.ErrWagerNotPending):
		statusCode = http.StatusConflict
		message = err.Error()
	case util.IsError(err, util.ErrNoLinkedPlayer),
		util.IsError(err, util.ErrPlayerNotFound):
		statusCode = http.StatusUnprocessableEntity
		message = err.Error()
	case util.IsError(err, util.ErrRateLimited), util.IsError(err, util.ErrUpstream):
		statusCode = http.StatusBadGateway
		message = "Match provider unavailable"
	case util.IsError(err, util.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = err.Error()
	default:
		logger.Error("Unhandled service error", "error", err)
	}

	respondWithJSON(logger, w, statusCode, map[string]string{"error": message})
}
