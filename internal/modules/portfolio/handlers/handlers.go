// Package handlers provides HTTP handlers for portfolio views.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/modules/portfolio"
)

// PortfolioHandlers contains HTTP handlers for the portfolio API.
type PortfolioHandlers struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewPortfolioHandlers creates a new portfolio handlers instance
func NewPortfolioHandlers(service *portfolio.Service, log zerolog.Logger) *PortfolioHandlers {
	return &PortfolioHandlers{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes. The snapshot module
// adds /portfolios/{owner}/history on the same router, so these are
// plain routes rather than a mounted subtree.
func (h *PortfolioHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios", h.HandleGetAll)
	r.Get("/portfolios/standings", h.HandleGetStandings)
	r.Get("/portfolios/{owner}", h.HandleGetOwner)
}

// HandleGetAll returns both competitors' valuation views.
// GET /api/portfolios
func (h *PortfolioHandlers) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.GetAllViews()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio views")
		h.writeError(w, http.StatusInternalServerError, "Failed to load portfolios")
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

// HandleGetOwner returns one competitor's valuation view.
// GET /api/portfolios/{owner}
func (h *PortfolioHandlers) HandleGetOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := domain.ParseOwner(chi.URLParam(r, "owner"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "Unknown owner")
		return
	}

	view, err := h.service.GetOwnerView(owner)
	if err != nil {
		h.log.Error().Err(err).Str("owner", string(owner)).Msg("Failed to build portfolio view")
		h.writeError(w, http.StatusInternalServerError, "Failed to load portfolio")
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// HandleGetStandings returns the leaderboard.
// GET /api/portfolios/standings
func (h *PortfolioHandlers) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.service.GetStandings()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute standings")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute standings")
		return
	}
	h.writeJSON(w, http.StatusOK, standings)
}

func (h *PortfolioHandlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *PortfolioHandlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
