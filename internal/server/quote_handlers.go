package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/events"
)

// QuoteSource provides current quotes for symbols.
type QuoteSource interface {
	GetQuote(symbol string) (*domain.Quote, error)
}

// HeldSymbolSource lists every symbol currently held by any competitor.
type HeldSymbolSource interface {
	HeldSymbols() ([]string, error)
}

// QuoteHandlers serves the quote board: watchlist symbols plus
// anything either competitor holds.
type QuoteHandlers struct {
	quotes    QuoteSource
	positions HeldSymbolSource
	watchlist []string
	bus       *events.Bus
	log       zerolog.Logger
}

// NewQuoteHandlers creates a new quote handlers instance
func NewQuoteHandlers(
	quotes QuoteSource,
	positions HeldSymbolSource,
	watchlist []string,
	bus *events.Bus,
	log zerolog.Logger,
) *QuoteHandlers {
	return &QuoteHandlers{
		quotes:    quotes,
		positions: positions,
		watchlist: watchlist,
		bus:       bus,
		log:       log.With().Str("component", "quote_handlers").Logger(),
	}
}

// QuotesResponse is the payload for GET /api/quotes.
type QuotesResponse struct {
	Quotes []domain.Quote `json:"quotes"`
	Failed []string       `json:"failed,omitempty"`
	AsOf   time.Time      `json:"as_of"`
}

// HandleQuotes handles GET /api/quotes. Symbols whose quote fetch
// fails are reported in the failed list rather than failing the call.
func (h *QuoteHandlers) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.universe()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve quote universe")
		http.Error(w, "failed to resolve symbols", http.StatusInternalServerError)
		return
	}

	response := QuotesResponse{
		Quotes: make([]domain.Quote, 0, len(symbols)),
		AsOf:   time.Now().UTC(),
	}

	for _, symbol := range symbols {
		quote, err := h.quotes.GetQuote(symbol)
		if err != nil {
			h.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
			response.Failed = append(response.Failed, symbol)
			continue
		}
		response.Quotes = append(response.Quotes, *quote)
	}

	h.bus.Publish(events.QuotesRefreshed, events.QuotesRefreshedData{
		Symbols: len(response.Quotes),
		Failed:  len(response.Failed),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode quotes response")
	}
}

// universe returns the watchlist merged with held symbols, sorted and
// deduplicated.
func (h *QuoteHandlers) universe() ([]string, error) {
	held, err := h.positions.HeldSymbols()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(h.watchlist)+len(held))
	symbols := make([]string, 0, len(h.watchlist)+len(held))
	for _, symbol := range append(append([]string{}, h.watchlist...), held...) {
		if !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	sort.Strings(symbols)
	return symbols, nil
}
