// Package handlers provides HTTP handlers for the agent pipeline.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/modules/agent"
)

// Handler handles agent HTTP requests
type Handler struct {
	service *agent.Service
	log     zerolog.Logger
}

// NewHandler creates a new agent handler
func NewHandler(service *agent.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "agent").Logger(),
	}
}

// RegisterRoutes registers all agent routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agent", func(r chi.Router) {
		r.Post("/run", h.HandleRunCycle)
	})
}

// HandleRunCycle triggers one decision cycle outside the schedule.
// POST /api/agent/run
func (h *Handler) HandleRunCycle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunCycle(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Agent cycle aborted")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Agent cycle aborted"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
