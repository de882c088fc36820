package events

// TradeExecutedData contains data for TradeExecuted events
type TradeExecutedData struct {
	Owner     string  `json:"owner"`
	Symbol    string  `json:"symbol"`
	Action    string  `json:"action"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
	Source    string  `json:"source,omitempty"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// PortfolioChangedData contains data for PortfolioChanged events
type PortfolioChangedData struct {
	Owner string  `json:"owner"`
	Cash  float64 `json:"cash"`
}

// QuotesRefreshedData contains data for QuotesRefreshed events
type QuotesRefreshedData struct {
	Symbols int `json:"symbols"`
	Failed  int `json:"failed"`
}

// AgentCycleCompletedData contains data for AgentCycleCompleted events
type AgentCycleCompletedData struct {
	CycleID string `json:"cycle_id"`
	Outcome string `json:"outcome"` // traded, hold, rejected, no_decision, skipped_market_closed, failed
	Detail  string `json:"detail,omitempty"`
}

// SnapshotTakenData contains data for SnapshotTaken events
type SnapshotTakenData struct {
	Owners int `json:"owners"`
}
