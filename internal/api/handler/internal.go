// internal/api/handler/internal.go
package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"matchstake/internal/service"
	"matchstake/internal/util"
)

const internalTokenHeader = "X-Internal-Token"

// InternalHandler handles the trusted-collaborator endpoints: the scheduler
// trigger, funding credits and administrative cancellation. All of them are
// guarded by a shared secret.
type InternalHandler struct {
	wagerService    service.WagerService
	resolverService service.ResolverService
	token           string
	logger          *slog.Logger
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(
	wagerService service.WagerService,
	resolverService service.ResolverService,
	token string,
	logger *slog.Logger,
) *InternalHandler {
	return &InternalHandler{
		wagerService:    wagerService,
		resolverService: resolverService,
		token:           token,
		logger:          logger,
	}
}

// RequireToken rejects requests whose shared secret does not match.
func (h *InternalHandler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(internalTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			h.logger.Warn("internal endpoint rejected", "path", r.URL.Path)
			respondWithError(h.logger, w, util.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TriggerResolverRun runs one reconciliation pass over all pending wagers.
// POST /internal/resolver/run
func (h *InternalHandler) TriggerResolverRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.resolverService.Run(r.Context(), time.Now())
	if err != nil {
		// A cancelled run still produced a partial report worth returning.
		if report != nil {
			respondWithJSON(h.logger, w, http.StatusOK, report)
			return
		}
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, report)
}

// CreditRequest represents the request body for a funding credit.
type CreditRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// CreditAccount credits an account's real balance after a confirmed purchase.
// POST /internal/accounts/{accountID}/credit
func (h *InternalHandler) CreditAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil || accountID <= 0 {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	var req CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}
	if req.Reason == "" {
		req.Reason = "funding credit"
	}

	account, err := h.wagerService.CreditReal(r.Context(), accountID, req.Amount, req.Reason)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, account)
}

// CancelWager cancels a pending wager and refunds its stake.
// POST /internal/wagers/{wagerID}/cancel
func (h *InternalHandler) CancelWager(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "wagerID")
	if wagerID == "" {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	wager, err := h.wagerService.CancelWager(r.Context(), wagerID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, wager)
}
