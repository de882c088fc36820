// Package handlers provides HTTP handlers for snapshot history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/modules/snapshots"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	service *snapshots.Service
	log     zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(service *snapshots.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// RegisterRoutes registers all snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{owner}/history", h.HandleGetHistory)
}

// HandleGetHistory returns an owner's daily value series.
// GET /api/portfolios/{owner}/history?limit=90
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := domain.ParseOwner(chi.URLParam(r, "owner"))
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unknown owner"})
		return
	}

	limit := 90
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history, err := h.service.GetHistory(owner, limit)
	if err != nil {
		h.log.Error().Err(err).Str("owner", string(owner)).Msg("Failed to load snapshot history")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to load history"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(history)
}
