// Package handlers provides HTTP handlers for trade execution and history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/modules/trading"
)

// TradingHandlers contains HTTP handlers for the trading API.
type TradingHandlers struct {
	engine *trading.Engine
	log    zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(engine *trading.Engine, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		engine: engine,
		log:    log.With().Str("handler", "trading").Logger(),
	}
}

// HandleGetTrades returns trade history, newest first.
// GET /api/trades?owner=gabe&limit=50
func (h *TradingHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var owner domain.Owner
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		parsed, ok := domain.ParseOwner(ownerParam)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "Unknown owner")
			return
		}
		owner = parsed
	}

	trades, err := h.engine.History(owner, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade history")
		h.writeError(w, http.StatusInternalServerError, "Failed to get trade history")
		return
	}

	h.writeJSON(w, http.StatusOK, trades)
}

// HandleExecuteTrade executes a manual trade.
// POST /api/trades
func (h *TradingHandlers) HandleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner     string  `json:"owner"`
		Action    string  `json:"action"`
		Symbol    string  `json:"symbol"`
		Quantity  int64   `json:"quantity"`
		Price     float64 `json:"price"`
		Reasoning string  `json:"reasoning"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	owner, ok := domain.ParseOwner(req.Owner)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown owner")
		return
	}

	action, ok := domain.ParseAction(req.Action)
	if !ok || action == domain.ActionHold {
		h.writeError(w, http.StatusBadRequest, "Action must be BUY or SELL")
		return
	}

	// The human declares the fill price; the engine validates it the
	// same way it validates an agent-quoted price.
	trade, err := h.engine.Execute(owner, domain.TradeIntent{
		Action:    action,
		Symbol:    req.Symbol,
		Quantity:  req.Quantity,
		Reasoning: req.Reasoning,
	}, req.Price, domain.SourceHuman)
	if err != nil {
		h.writeTradeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, trade)
}

// writeTradeError maps engine errors onto HTTP statuses. Validation
// failures carry their constraint detail in the message.
func (h *TradingHandlers) writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrPriceUnavailable),
		errors.Is(err, domain.ErrNoDecision):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientCash),
		errors.Is(err, domain.ErrInsufficientShares):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrConflictRetryExhausted):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Msg("Trade execution failed")
		h.writeError(w, http.StatusInternalServerError, "Trade execution failed")
	}
}

func (h *TradingHandlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // Ignore encode error - already committed response
}

func (h *TradingHandlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
