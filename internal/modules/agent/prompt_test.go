package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gabe/tradelab/internal/domain"
)

func promptContext() *Context {
	rsi := 62.3
	return &Context{
		Portfolio: &domain.Portfolio{Owner: domain.OwnerAgent, Cash: 250},
		Positions: []domain.Position{
			{Owner: domain.OwnerAgent, Symbol: "AAPL", Quantity: 5, AvgPrice: 150},
		},
		Quotes: map[string]*domain.Quote{
			"AAPL": {Symbol: "AAPL", Price: 155.5, ChangePercent: 1.2},
			"NVDA": {Symbol: "NVDA", Price: 900, ChangePercent: -0.8},
		},
		RecentTrades: []domain.Trade{
			{Owner: domain.OwnerHuman, Action: domain.ActionBuy, Quantity: 2, Symbol: "SPY", Price: 550, CreatedAt: time.Now()},
		},
		Indicators: map[string]Indicators{
			"AAPL": {RSI14: &rsi},
		},
	}
}

func TestBuildPromptSections(t *testing.T) {
	prompt := BuildPrompt(promptContext())

	assert.Contains(t, prompt, "$1,000 challenge")
	assert.Contains(t, prompt, "Cash: $250.00")
	assert.Contains(t, prompt, "5 AAPL @ $150.00")
	assert.Contains(t, prompt, "AAPL: $155.50 (1.20%)")
	assert.Contains(t, prompt, "NVDA: $900.00 (-0.80%)")
	assert.Contains(t, prompt, "RSI14 62.3")
	assert.Contains(t, prompt, "gabe: BUY 2 SPY @ $550.00")
	assert.Contains(t, prompt, `{"action":"BUY"|"SELL"|"HOLD"`)
}

func TestBuildPromptEmptyState(t *testing.T) {
	ctx := promptContext()
	ctx.Positions = nil
	ctx.RecentTrades = nil
	ctx.Indicators = nil

	prompt := BuildPrompt(ctx)
	assert.Contains(t, prompt, "Positions: None")
	assert.Contains(t, prompt, "RECENT TRADES:\nNone")
}

func TestBuildPromptCapsTradeHistory(t *testing.T) {
	ctx := promptContext()
	ctx.RecentTrades = nil
	for i := 0; i < 10; i++ {
		ctx.RecentTrades = append(ctx.RecentTrades, domain.Trade{
			Owner: domain.OwnerAgent, Action: domain.ActionBuy, Quantity: 1, Symbol: "AAPL", Price: 100,
		})
	}

	prompt := BuildPrompt(ctx)
	assert.Equal(t, maxTradesInPrompt, strings.Count(prompt, "claude: BUY"))
}

func TestBuildPromptMarketDataSorted(t *testing.T) {
	prompt := BuildPrompt(promptContext())
	assert.Less(t, strings.Index(prompt, "AAPL: $"), strings.Index(prompt, "NVDA: $"))
}
