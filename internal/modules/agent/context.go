package agent

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/pkg/formulas"
)

// QuoteProvider supplies quotes and history for the decision context.
type QuoteProvider interface {
	GetQuote(symbol string) (*domain.Quote, error)
	GetDailyCloses(symbol string, period string) ([]float64, error)
}

// Indicators are the technical figures computed per symbol. Either
// field may be nil when history was too short or unavailable.
type Indicators struct {
	RSI14 *float64
	SMA20 *float64
}

// Context is everything the model sees before deciding.
type Context struct {
	Portfolio    *domain.Portfolio
	Positions    []domain.Position
	Quotes       map[string]*domain.Quote
	Failed       []string
	RecentTrades []domain.Trade
	Indicators   map[string]Indicators
}

// contextBuilder assembles the decision context. Quote failures drop
// the symbol from the context rather than aborting the cycle.
type contextBuilder struct {
	quotes    QuoteProvider
	watchlist []string
	log       zerolog.Logger
}

// universe merges the watchlist with currently held symbols,
// deduplicated and sorted.
func (b *contextBuilder) universe(positions []domain.Position) []string {
	seen := make(map[string]bool, len(b.watchlist)+len(positions))
	for _, s := range b.watchlist {
		seen[domain.NormalizeSymbol(s)] = true
	}
	for _, p := range positions {
		seen[p.Symbol] = true
	}

	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// fetchQuotes pulls quotes for every symbol in the universe. A failed
// symbol is recorded and omitted; the model never sees it.
func (b *contextBuilder) fetchQuotes(symbols []string) (map[string]*domain.Quote, []string) {
	quotes := make(map[string]*domain.Quote, len(symbols))
	var failed []string
	for _, symbol := range symbols {
		q, err := b.quotes.GetQuote(symbol)
		if err != nil {
			b.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable, dropping from context")
			failed = append(failed, symbol)
			continue
		}
		quotes[symbol] = q
	}
	return quotes, failed
}

// fetchIndicators computes RSI-14 and SMA-20 per quoted symbol.
// Best effort: a history failure just leaves the symbol without
// technicals.
func (b *contextBuilder) fetchIndicators(quotes map[string]*domain.Quote) map[string]Indicators {
	indicators := make(map[string]Indicators, len(quotes))
	for symbol := range quotes {
		closes, err := b.quotes.GetDailyCloses(symbol, "3mo")
		if err != nil {
			b.log.Debug().Err(err).Str("symbol", symbol).Msg("No price history for indicators")
			continue
		}
		ind := Indicators{
			RSI14: formulas.CalculateRSI(closes, 14),
			SMA20: formulas.CalculateSMA(closes, 20),
		}
		if ind.RSI14 != nil || ind.SMA20 != nil {
			indicators[symbol] = ind
		}
	}
	return indicators
}

func (b *contextBuilder) build(portfolio *domain.Portfolio, positions []domain.Position, recentTrades []domain.Trade) (*Context, error) {
	symbols := b.universe(positions)
	quotes, failed := b.fetchQuotes(symbols)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no quotes available for any of %d symbols", len(symbols))
	}

	return &Context{
		Portfolio:    portfolio,
		Positions:    positions,
		Quotes:       quotes,
		Failed:       failed,
		RecentTrades: recentTrades,
		Indicators:   b.fetchIndicators(quotes),
	}, nil
}
