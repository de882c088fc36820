package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabe/tradelab/internal/domain"
)

// decisionPattern extracts the JSON object from a model reply. Greedy
// from the first brace to the last, so surrounding prose is tolerated
// but the object itself must be well formed.
var decisionPattern = regexp.MustCompile(`(?s)\{.*\}`)

// rawDecision is the wire shape the model is instructed to produce.
// Quantity decodes as json.Number so fractional values can be rejected
// instead of silently truncated.
type rawDecision struct {
	Action    string      `json:"action"`
	Symbol    string      `json:"symbol"`
	Quantity  json.Number `json:"quantity"`
	Reasoning string      `json:"reasoning"`
}

// ParseDecision extracts and validates a trade decision from a model
// reply. Parsing fails closed: anything malformed means no trade.
func ParseDecision(reply string) (domain.TradeIntent, error) {
	match := decisionPattern.FindString(reply)
	if match == "" {
		return domain.TradeIntent{}, fmt.Errorf("%w: no JSON object in reply", domain.ErrNoDecision)
	}

	var raw rawDecision
	dec := json.NewDecoder(strings.NewReader(match))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return domain.TradeIntent{}, fmt.Errorf("%w: %s", domain.ErrNoDecision, err)
	}

	action, ok := domain.ParseAction(raw.Action)
	if !ok {
		return domain.TradeIntent{}, fmt.Errorf("%w: action %q", domain.ErrNoDecision, raw.Action)
	}

	intent := domain.TradeIntent{
		Action:    action,
		Symbol:    domain.NormalizeSymbol(raw.Symbol),
		Reasoning: strings.TrimSpace(raw.Reasoning),
	}

	// HOLD carries no quantity requirement; BUY and SELL need a
	// positive whole number.
	if action == domain.ActionHold {
		return intent, nil
	}

	if raw.Quantity == "" {
		return domain.TradeIntent{}, fmt.Errorf("%w: missing quantity", domain.ErrNoDecision)
	}
	qty, err := raw.Quantity.Int64()
	if err != nil {
		return domain.TradeIntent{}, fmt.Errorf("%w: quantity %q is not a whole number", domain.ErrNoDecision, raw.Quantity)
	}
	if qty <= 0 {
		return domain.TradeIntent{}, fmt.Errorf("%w: quantity %d", domain.ErrNoDecision, qty)
	}
	intent.Quantity = qty

	if intent.Symbol == "" {
		return domain.TradeIntent{}, fmt.Errorf("%w: missing symbol", domain.ErrNoDecision)
	}

	return intent, nil
}
