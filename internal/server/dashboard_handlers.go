package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/modules/market_hours"
	"github.com/gabe/tradelab/internal/modules/portfolio"
)

// recentTradesLimit caps the trade feed on the dashboard.
const recentTradesLimit = 50

// PortfolioViews projects competitor portfolios and standings.
type PortfolioViews interface {
	GetAllViews() ([]portfolio.OwnerView, error)
	GetStandings() (*portfolio.Standings, error)
}

// TradeHistory lists recent trades across owners.
type TradeHistory interface {
	History(owner domain.Owner, limit int) ([]domain.Trade, error)
}

// MarketStatusSource reports the current market session.
type MarketStatusSource interface {
	GetStatus() market_hours.Status
}

// DashboardHandlers serves the single-call competition overview.
type DashboardHandlers struct {
	portfolios PortfolioViews
	trades     TradeHistory
	market     MarketStatusSource
	log        zerolog.Logger
}

// NewDashboardHandlers creates a new dashboard handlers instance
func NewDashboardHandlers(
	portfolios PortfolioViews,
	trades TradeHistory,
	market MarketStatusSource,
	log zerolog.Logger,
) *DashboardHandlers {
	return &DashboardHandlers{
		portfolios: portfolios,
		trades:     trades,
		market:     market,
		log:        log.With().Str("component", "dashboard_handlers").Logger(),
	}
}

// DashboardResponse is the payload for GET /api/dashboard.
type DashboardResponse struct {
	Portfolios   []portfolio.OwnerView `json:"portfolios"`
	Standings    *portfolio.Standings  `json:"standings"`
	RecentTrades []domain.Trade        `json:"recent_trades"`
	Market       market_hours.Status   `json:"market"`
}

// HandleDashboard handles GET /api/dashboard
func (h *DashboardHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	views, err := h.portfolios.GetAllViews()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load portfolio views")
		http.Error(w, "failed to load portfolios", http.StatusInternalServerError)
		return
	}

	standings, err := h.portfolios.GetStandings()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute standings")
		http.Error(w, "failed to compute standings", http.StatusInternalServerError)
		return
	}

	// Empty owner means all owners.
	trades, err := h.trades.History("", recentTradesLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recent trades")
		http.Error(w, "failed to load trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}

	response := DashboardResponse{
		Portfolios:   views,
		Standings:    standings,
		RecentTrades: trades,
		Market:       h.market.GetStatus(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode dashboard response")
	}
}
