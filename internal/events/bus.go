// Package events provides the in-process pub/sub bus used to notify
// subscribers (SSE/WebSocket streams, projections) of ledger changes.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType identifies a category of event on the bus.
type EventType string

const (
	// TradeExecuted is emitted after a trade commits to the ledger.
	TradeExecuted EventType = "trade_executed"
	// PortfolioChanged is emitted whenever cash or positions change.
	PortfolioChanged EventType = "portfolio_changed"
	// QuotesRefreshed is emitted after a quote fetch cycle completes.
	QuotesRefreshed EventType = "quotes_refreshed"
	// AgentCycleCompleted is emitted at the end of every agent cycle,
	// whether or not it produced a trade.
	AgentCycleCompleted EventType = "agent_cycle_completed"
	// SnapshotTaken is emitted after daily value snapshots are recorded.
	SnapshotTaken EventType = "snapshot_taken"
)

// AllTypes lists every event type the streams subscribe to.
func AllTypes() []EventType {
	return []EventType{
		TradeExecuted,
		PortfolioChanged,
		QuotesRefreshed,
		AgentCycleCompleted,
		SnapshotTaken,
	}
}

// Event is a single published event with its serializable payload.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// MarshalJSON keeps the wire shape stable for stream consumers.
func (e *Event) MarshalJSON() ([]byte, error) {
	type alias Event
	return json.Marshal((*alias)(e))
}

// Handler receives published events. Handlers must not block; slow
// consumers buffer on their own channels.
type Handler func(event *Event)

// Bus is a minimal synchronous pub/sub bus. Subscribe is expected at
// startup; Publish may be called from any goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish delivers data to every handler subscribed to t. The event
// timestamp is assigned here.
func (b *Bus) Publish(t EventType, data interface{}) {
	event := &Event{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
