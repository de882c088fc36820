// Package domain provides core domain models and types.
package domain

import (
	"strings"
	"time"
)

// InitialCapital is the starting cash for every participant, in USD.
// Both competitors begin from the same fixed amount; all P&L figures
// are derived relative to this constant.
const InitialCapital = 1000.0

// Owner identifies a trading participant. Exactly two exist in a
// competition: the autonomous agent and the human.
type Owner string

const (
	OwnerAgent Owner = "claude"
	OwnerHuman Owner = "gabe"
)

// Owners returns both participants in display order.
func Owners() []Owner {
	return []Owner{OwnerAgent, OwnerHuman}
}

// ParseOwner maps a string to a known participant.
func ParseOwner(s string) (Owner, bool) {
	switch Owner(strings.ToLower(strings.TrimSpace(s))) {
	case OwnerAgent:
		return OwnerAgent, true
	case OwnerHuman:
		return OwnerHuman, true
	default:
		return "", false
	}
}

// ParseAction maps a string to a trade action, case-insensitively.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	case ActionHold:
		return ActionHold, true
	default:
		return "", false
	}
}

// Action is the direction of a trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	// ActionHold is a valid agent decision but never reaches the ledger.
	ActionHold Action = "HOLD"
)

// TradeSource records which decision source produced a trade.
type TradeSource string

const (
	SourceHuman TradeSource = "human"
	SourceAgent TradeSource = "agent"
)

// DefaultReasoning is stored when a trade carries no free-text rationale.
const DefaultReasoning = "No reasoning"

// Portfolio holds the cash balance for one participant.
// Position value is tracked separately; see Position.
type Portfolio struct {
	Owner     Owner     `json:"owner"`
	Cash      float64   `json:"cash"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Position is a current holding of one symbol by one owner, tracked at
// cost basis. A Position row exists iff quantity > 0; selling down to
// zero deletes the row rather than zeroing it.
type Position struct {
	Owner     Owner     `json:"owner"`
	Symbol    string    `json:"symbol"`
	Quantity  int64     `json:"quantity"`
	AvgPrice  float64   `json:"avg_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CostBasis returns quantity × average acquisition price.
func (p Position) CostBasis() float64 {
	return float64(p.Quantity) * p.AvgPrice
}

// Trade is an immutable record of one executed action. Trades are
// append-only: never mutated, never deleted.
type Trade struct {
	ID        int64       `json:"id"`
	Owner     Owner       `json:"owner"`
	Symbol    string      `json:"symbol"`
	Action    Action      `json:"action"`
	Quantity  int64       `json:"quantity"`
	Price     float64     `json:"price"`
	Reasoning string      `json:"reasoning"`
	Source    TradeSource `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
}

// TradeIntent is a proposed trade before validation. Both decision
// sources (human submission and agent pipeline) produce intents; the
// execution engine treats them identically.
type TradeIntent struct {
	Action    Action
	Symbol    string
	Quantity  int64
	Reasoning string
}

// NormalizedSymbol returns the intent's symbol uppercased and trimmed.
func (i TradeIntent) NormalizedSymbol() string {
	return NormalizeSymbol(i.Symbol)
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Quote is a point-in-time market quote for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	FetchedAt     time.Time `json:"fetched_at"`
}
