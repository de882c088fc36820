// Package agent runs the autonomous decision pipeline: gather market
// context, ask the model for one decision, execute it through the same
// engine human trades use.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/events"
	"github.com/gabe/tradelab/internal/modules/portfolio"
)

// Completer produces a single-turn model reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Executor applies a validated trade intent to the ledger.
type Executor interface {
	Execute(owner domain.Owner, intent domain.TradeIntent, price float64, source domain.TradeSource) (*domain.Trade, error)
	History(owner domain.Owner, limit int) ([]domain.Trade, error)
}

// MarketGate reports whether trading is currently allowed.
type MarketGate interface {
	IsOpen() bool
}

// Outcome classifies how a cycle ended. Every cycle ends in exactly
// one outcome; a failed trade attempt never retries within the cycle.
type Outcome string

const (
	OutcomeSkippedClosed Outcome = "skipped_market_closed"
	OutcomeHold          Outcome = "hold"
	OutcomeTraded        Outcome = "traded"
	OutcomeNoDecision    Outcome = "no_decision"
	OutcomeRejected      Outcome = "rejected"
	OutcomeFailed        Outcome = "failed"
)

// CycleResult records one pipeline run.
type CycleResult struct {
	CycleID string        `json:"cycle_id"`
	Outcome Outcome       `json:"outcome"`
	Detail  string        `json:"detail,omitempty"`
	Trade   *domain.Trade `json:"trade,omitempty"`
}

// Service orchestrates the agent decision cycle.
type Service struct {
	gate       MarketGate
	portfolios *portfolio.PortfolioRepository
	positions  *portfolio.PositionRepository
	model      Completer
	executor   Executor
	bus        *events.Bus
	builder    *contextBuilder
	log        zerolog.Logger
}

// NewService creates a new agent service
func NewService(
	gate MarketGate,
	portfolios *portfolio.PortfolioRepository,
	positions *portfolio.PositionRepository,
	quotes QuoteProvider,
	model Completer,
	executor Executor,
	bus *events.Bus,
	watchlist []string,
	log zerolog.Logger,
) *Service {
	serviceLog := log.With().Str("service", "agent").Logger()
	return &Service{
		gate:       gate,
		portfolios: portfolios,
		positions:  positions,
		model:      model,
		executor:   executor,
		bus:        bus,
		builder: &contextBuilder{
			quotes:    quotes,
			watchlist: watchlist,
			log:       serviceLog,
		},
		log: serviceLog,
	}
}

// RunCycle executes one full decision cycle. It always returns a
// result; the error return is reserved for context cancellation.
func (s *Service) RunCycle(ctx context.Context) (*CycleResult, error) {
	cycleID := uuid.New().String()
	log := s.log.With().Str("cycle_id", cycleID).Logger()

	result := s.runCycle(ctx, cycleID, log)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Info().Str("outcome", string(result.Outcome)).Str("detail", result.Detail).Msg("Agent cycle completed")
	s.bus.Publish(events.AgentCycleCompleted, events.AgentCycleCompletedData{
		CycleID: cycleID,
		Outcome: string(result.Outcome),
		Detail:  result.Detail,
	})

	return result, nil
}

func (s *Service) runCycle(ctx context.Context, cycleID string, log zerolog.Logger) *CycleResult {
	if !s.gate.IsOpen() {
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeSkippedClosed, Detail: domain.ErrMarketClosed.Error()}
	}

	p, err := s.portfolios.GetOrCreate(domain.OwnerAgent)
	if err != nil {
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeFailed, Detail: fmt.Sprintf("load portfolio: %v", err)}
	}

	positions, err := s.positions.GetByOwner(domain.OwnerAgent)
	if err != nil {
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeFailed, Detail: fmt.Sprintf("load positions: %v", err)}
	}

	// Both competitors' recent trades go into the prompt: the agent is
	// allowed to see what the human has been doing.
	recentTrades, err := s.executor.History("", 10)
	if err != nil {
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeFailed, Detail: fmt.Sprintf("load trades: %v", err)}
	}

	decisionCtx, err := s.builder.build(p, positions, recentTrades)
	if err != nil {
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeFailed, Detail: fmt.Sprintf("build context: %v", err)}
	}

	reply, err := s.model.Complete(ctx, BuildPrompt(decisionCtx))
	if err != nil {
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeFailed, Detail: fmt.Sprintf("model: %v", err)}
	}

	intent, err := ParseDecision(reply)
	if err != nil {
		log.Warn().Err(err).Msg("Model reply yielded no decision")
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeNoDecision, Detail: err.Error()}
	}

	if intent.Action == domain.ActionHold {
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeHold, Detail: intent.Reasoning}
	}

	// The decision must name a symbol the model was actually quoted;
	// that quote becomes the execution price.
	quote, ok := decisionCtx.Quotes[intent.Symbol]
	if !ok {
		return &CycleResult{
			CycleID: cycleID,
			Outcome: OutcomeRejected,
			Detail:  fmt.Sprintf("%v: %s", domain.ErrUnknownSymbol, intent.Symbol),
		}
	}

	trade, err := s.executor.Execute(domain.OwnerAgent, intent, quote.Price, domain.SourceAgent)
	if err != nil {
		if domain.IsValidationError(err) {
			return &CycleResult{CycleID: cycleID, Outcome: OutcomeRejected, Detail: err.Error()}
		}
		return &CycleResult{CycleID: cycleID, Outcome: OutcomeFailed, Detail: fmt.Sprintf("execute: %v", err)}
	}

	return &CycleResult{CycleID: cycleID, Outcome: OutcomeTraded, Detail: intent.Reasoning, Trade: trade}
}
