package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gabe/tradelab/internal/domain"
)

// maxTradesInPrompt bounds the trade history shown to the model.
const maxTradesInPrompt = 5

// BuildPrompt renders the decision prompt from a context. The reply
// contract at the bottom is what ParseDecision expects back.
func BuildPrompt(ctx *Context) string {
	var b strings.Builder

	b.WriteString("You are an AI paper trader in a $1,000 challenge against a human (Gabe). Trade wisely!\n\n")

	b.WriteString("YOUR PORTFOLIO:\n")
	fmt.Fprintf(&b, "- Cash: $%.2f\n", ctx.Portfolio.Cash)
	b.WriteString("- Positions: ")
	if len(ctx.Positions) == 0 {
		b.WriteString("None")
	} else {
		parts := make([]string, 0, len(ctx.Positions))
		for _, p := range ctx.Positions {
			parts = append(parts, fmt.Sprintf("%d %s @ $%.2f", p.Quantity, p.Symbol, p.AvgPrice))
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	b.WriteString("\n\n")

	b.WriteString("MARKET DATA:\n")
	for _, symbol := range sortedSymbols(ctx.Quotes) {
		q := ctx.Quotes[symbol]
		fmt.Fprintf(&b, "%s: $%.2f (%.2f%%)", symbol, q.Price, q.ChangePercent)
		if ind, ok := ctx.Indicators[symbol]; ok {
			b.WriteString(formatIndicators(ind))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("RECENT TRADES:\n")
	if len(ctx.RecentTrades) == 0 {
		b.WriteString("None\n")
	} else {
		shown := ctx.RecentTrades
		if len(shown) > maxTradesInPrompt {
			shown = shown[:maxTradesInPrompt]
		}
		for _, t := range shown {
			fmt.Fprintf(&b, "%s: %s %d %s @ $%.2f\n", t.Owner, t.Action, t.Quantity, t.Symbol, t.Price)
		}
	}
	b.WriteString("\n")

	b.WriteString("RULES: Starting capital $1,000 each. Max 5 positions. No penny stocks. Be strategic.\n\n")
	b.WriteString("Respond in JSON only:\n")
	b.WriteString(`{"action":"BUY"|"SELL"|"HOLD","symbol":"TICKER","quantity":number,"reasoning":"why"}`)

	return b.String()
}

func formatIndicators(ind Indicators) string {
	var parts []string
	if ind.RSI14 != nil {
		parts = append(parts, fmt.Sprintf("RSI14 %.1f", *ind.RSI14))
	}
	if ind.SMA20 != nil {
		parts = append(parts, fmt.Sprintf("SMA20 $%.2f", *ind.SMA20))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func sortedSymbols(quotes map[string]*domain.Quote) []string {
	symbols := make([]string, 0, len(quotes))
	for s := range quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
