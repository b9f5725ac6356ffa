// internal/api/handler/wager.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"matchstake/internal/api/types"
	"matchstake/internal/domain"
	"matchstake/internal/service"
	"matchstake/internal/util"
)

// DefaultTimeout is the request timeout applied by the router middleware.
const DefaultTimeout = 15 * time.Second

// accountIDHeader carries the authenticated owner id, set by the external
// identity collaborator in front of this service.
const accountIDHeader = "X-Account-ID"

var validate = validator.New()

// WagerHandler handles HTTP requests for the wager lifecycle.
type WagerHandler struct {
	service service.WagerService
	logger  *slog.Logger
}

// NewWagerHandler creates a new WagerHandler.
func NewWagerHandler(svc service.WagerService, logger *slog.Logger) *WagerHandler {
	return &WagerHandler{
		service: svc,
		logger:  logger,
	}
}

// accountID extracts the authenticated owner id from the request.
func (h *WagerHandler) accountID(r *http.Request) (int64, error) {
	raw := r.Header.Get(accountIDHeader)
	if raw == "" {
		return 0, util.ErrUnauthorized
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, util.ErrUnauthorized
	}
	return id, nil
}

// PlaceWagerRequest represents the request body for wager placement.
type PlaceWagerRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Mode   string          `json:"mode" validate:"required,oneof=virtual real"`
}

// PlaceWager handles wager placement.
// POST /wagers
func (h *WagerHandler) PlaceWager(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountID(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	var req PlaceWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	view, err := h.service.PlaceWager(r.Context(), accountID, req.Amount, domain.CurrencyMode(req.Mode))
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusCreated, view)
}

// ResolveWager handles on-demand resolution of the caller's pending wager.
// POST /wagers/resolve
func (h *WagerHandler) ResolveWager(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountID(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	result, err := h.service.ResolveOnDemand(r.Context(), accountID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	if !result.Settled {
		respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
			"settled": false,
			"message": "No new finished match yet",
		})
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, result)
}

// GetActiveWager returns the caller's pending wager.
// GET /wagers/active
func (h *WagerHandler) GetActiveWager(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountID(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	wager, err := h.service.ActiveWager(r.Context(), accountID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, wager)
}

// GetWagerHistory returns the caller's paginated wager history.
// GET /wagers
func (h *WagerHandler) GetWagerHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountID(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	wagers, err := h.service.WagerHistory(r.Context(), accountID, limit, offset)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, types.PaginatedResponse[domain.Wager]{
		Data:   wagers,
		Limit:  limit,
		Offset: offset,
	})
}

// GetBalances returns the caller's balances and current odds preview.
// GET /accounts/balances
func (h *WagerHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountID(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	view, err := h.service.AccountView(r.Context(), accountID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, view)
}
