// Package yahoo fetches market quotes and daily price history from
// Yahoo Finance via the go-yfinance library.
package yahoo

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/gabe/tradelab/internal/domain"
)

// Provider is the quote source the trading and agent layers depend on.
type Provider interface {
	GetQuote(symbol string) (*domain.Quote, error)
	GetDailyCloses(symbol string, period string) ([]float64, error)
}

// Client implements Provider against the live Yahoo Finance API.
type Client struct {
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		maxRetries: 3,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// GetQuote fetches the current price and day change for a symbol.
// Returns an error if no usable price is available; callers decide
// whether a missing quote is fatal or just drops the symbol.
func (c *Client) GetQuote(symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := time.Duration(1<<uint(attempt-1)) * time.Second
			c.log.Warn().Err(lastErr).Str("symbol", symbol).Int("attempt", attempt+1).Dur("wait", waitTime).Msg("Retrying quote fetch")
			time.Sleep(waitTime)
		}

		quote, err := c.fetchQuote(symbol)
		if err != nil {
			lastErr = err
			continue
		}
		return quote, nil
	}

	return nil, fmt.Errorf("quote for %s: %w", symbol, lastErr)
}

func (c *Client) fetchQuote(symbol string) (*domain.Quote, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	price := 0.0
	prevClose := 0.0

	// Quote is the fast path; Info fills in previous close and acts
	// as a fallback price source outside regular hours.
	quote, err := t.Quote()
	if err == nil && quote != nil {
		switch {
		case quote.RegularMarketPrice > 0:
			price = quote.RegularMarketPrice
		case quote.PostMarketPrice > 0:
			price = quote.PostMarketPrice
		case quote.PreMarketPrice > 0:
			price = quote.PreMarketPrice
		}
	}

	info, err := t.Info()
	if err == nil && info != nil {
		if info.RegularMarketPreviousClose > 0 {
			prevClose = info.RegularMarketPreviousClose
		}
		if price == 0 && info.CurrentPrice > 0 {
			price = info.CurrentPrice
		}
	}

	if price == 0 {
		return nil, fmt.Errorf("no valid price for %s", symbol)
	}

	changePercent := 0.0
	if prevClose > 0 {
		changePercent = (price - prevClose) / prevClose * 100
	}

	return &domain.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePercent,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// GetDailyCloses fetches daily closing prices for the given period
// (e.g. "1mo", "3mo"), oldest first.
func (c *Client) GetDailyCloses(symbol string, period string) ([]float64, error) {
	symbol = domain.NormalizeSymbol(symbol)

	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", symbol, err)
	}

	closes := make([]float64, 0, len(bars))
	for _, bar := range bars {
		if bar.Close > 0 {
			closes = append(closes, bar.Close)
		}
	}
	return closes, nil
}
