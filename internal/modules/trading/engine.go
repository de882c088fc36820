package trading

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/database"
	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/events"
	"github.com/gabe/tradelab/internal/modules/portfolio"
)

// maxAttempts bounds the optimistic-conflict retry loop. The per-owner
// lock serializes writers inside this process; the conditional updates
// catch anything writing to the ledger file from outside it.
const maxAttempts = 3

// Engine validates and executes trade intents. Both decision sources
// (human submissions and the agent pipeline) go through Execute; there
// is no privileged path around validation.
type Engine struct {
	db         *sql.DB
	portfolios *portfolio.PortfolioRepository
	positions  *portfolio.PositionRepository
	trades     *TradeRepository
	bus        *events.Bus
	log        zerolog.Logger

	// One lock per owner: the two competitors never contend with each
	// other, only with their own concurrent submissions.
	mu map[domain.Owner]*sync.Mutex
}

// NewEngine creates a new trade execution engine
func NewEngine(
	db *sql.DB,
	portfolios *portfolio.PortfolioRepository,
	positions *portfolio.PositionRepository,
	trades *TradeRepository,
	bus *events.Bus,
	log zerolog.Logger,
) *Engine {
	locks := make(map[domain.Owner]*sync.Mutex, 2)
	for _, owner := range domain.Owners() {
		locks[owner] = &sync.Mutex{}
	}

	return &Engine{
		db:         db,
		portfolios: portfolios,
		positions:  positions,
		trades:     trades,
		bus:        bus,
		log:        log.With().Str("service", "trading").Logger(),
		mu:         locks,
	}
}

// errConflict signals that a conditional update matched zero rows and
// the attempt must re-read and retry.
var errConflict = errors.New("conditional update matched no rows")

// Execute validates a trade intent and applies it to the ledger at the
// given execution price. The cash change, position change and trade
// record commit in a single transaction; a failure at any point leaves
// the ledger untouched.
//
// The price is supplied by the caller: the agent pipeline hands over
// the quote from its already-fetched context, human submissions
// declare their own fill price.
//
// Validation order is fixed: action, quantity, symbol, price, then
// funds or shares.
func (e *Engine) Execute(owner domain.Owner, intent domain.TradeIntent, price float64, source domain.TradeSource) (*domain.Trade, error) {
	if intent.Action != domain.ActionBuy && intent.Action != domain.ActionSell {
		return nil, fmt.Errorf("action %q cannot be executed: %w", intent.Action, domain.ErrNoDecision)
	}
	if intent.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	symbol := intent.NormalizedSymbol()
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}

	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, domain.ErrPriceUnavailable
	}

	reasoning := strings.TrimSpace(intent.Reasoning)
	if reasoning == "" {
		reasoning = domain.DefaultReasoning
	}

	lock := e.mu[owner]
	if lock == nil {
		return nil, fmt.Errorf("unknown owner %q", owner)
	}
	lock.Lock()
	defer lock.Unlock()

	var trade *domain.Trade
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		trade, err = e.attempt(owner, intent.Action, symbol, intent.Quantity, price, reasoning, source)
		if errors.Is(err, errConflict) {
			e.log.Warn().Str("owner", string(owner)).Str("symbol", symbol).Int("attempt", attempt+1).Msg("Ledger conflict, re-reading")
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	if errors.Is(err, errConflict) {
		return nil, domain.ErrConflictRetryExhausted
	}

	e.log.Info().
		Str("owner", string(owner)).
		Str("action", string(trade.Action)).
		Str("symbol", symbol).
		Int64("quantity", trade.Quantity).
		Float64("price", price).
		Str("source", string(source)).
		Msg("Trade executed")

	e.bus.Publish(events.TradeExecuted, events.TradeExecutedData{
		Owner:     string(owner),
		Symbol:    symbol,
		Action:    string(trade.Action),
		Quantity:  trade.Quantity,
		Price:     price,
		Source:    string(source),
		Reasoning: reasoning,
	})

	if p, perr := e.portfolios.Get(owner); perr == nil {
		e.bus.Publish(events.PortfolioChanged, events.PortfolioChangedData{
			Owner: string(owner),
			Cash:  p.Cash,
		})
	}

	return trade, nil
}

// attempt runs one read-validate-apply cycle.
func (e *Engine) attempt(owner domain.Owner, action domain.Action, symbol string, quantity int64, price float64, reasoning string, source domain.TradeSource) (*domain.Trade, error) {
	p, err := e.portfolios.GetOrCreate(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}

	pos, err := e.positions.Get(owner, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}

	// Validate against the just-read state before opening the transaction.
	switch action {
	case domain.ActionBuy:
		cost := price * float64(quantity)
		if cost > p.Cash {
			return nil, &domain.InsufficientCashError{Required: cost, Available: p.Cash}
		}
	case domain.ActionSell:
		held := int64(0)
		if pos != nil {
			held = pos.Quantity
		}
		if held < quantity {
			return nil, &domain.InsufficientSharesError{Symbol: symbol, Requested: quantity, Held: held}
		}
	}

	trade := &domain.Trade{
		Owner:     owner,
		Symbol:    symbol,
		Action:    action,
		Quantity:  quantity,
		Price:     price,
		Reasoning: reasoning,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}

	err = database.WithTransaction(e.db, func(tx *sql.Tx) error {
		var newCash float64
		if action == domain.ActionBuy {
			newCash = p.Cash - price*float64(quantity)
		} else {
			newCash = p.Cash + price*float64(quantity)
		}

		ok, err := e.portfolios.UpdateCashTx(tx, owner, p.Cash, newCash)
		if err != nil {
			return err
		}
		if !ok {
			return errConflict
		}

		if err := e.applyPositionTx(tx, owner, action, symbol, quantity, price, pos); err != nil {
			return err
		}

		id, err := e.trades.CreateTx(tx, trade)
		if err != nil {
			return err
		}
		trade.ID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, errConflict) {
			return nil, errConflict
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}

	return trade, nil
}

// applyPositionTx mutates the position row for one executed trade.
// BUY folds the new lot into the weighted average price; SELL keeps the
// average untouched and deletes the row when the last share goes.
func (e *Engine) applyPositionTx(tx *sql.Tx, owner domain.Owner, action domain.Action, symbol string, quantity int64, price float64, pos *domain.Position) error {
	if action == domain.ActionBuy {
		if pos == nil {
			return e.positions.InsertTx(tx, domain.Position{
				Owner:    owner,
				Symbol:   symbol,
				Quantity: quantity,
				AvgPrice: price,
			})
		}

		newQty := pos.Quantity + quantity
		newAvg := (pos.AvgPrice*float64(pos.Quantity) + price*float64(quantity)) / float64(newQty)
		ok, err := e.positions.UpdateTx(tx, owner, symbol, pos.Quantity, newQty, newAvg)
		if err != nil {
			return err
		}
		if !ok {
			return errConflict
		}
		return nil
	}

	// SELL: pos is non-nil, validated by the caller.
	remaining := pos.Quantity - quantity
	if remaining == 0 {
		ok, err := e.positions.DeleteTx(tx, owner, symbol, pos.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return errConflict
		}
		return nil
	}

	ok, err := e.positions.UpdateTx(tx, owner, symbol, pos.Quantity, remaining, pos.AvgPrice)
	if err != nil {
		return err
	}
	if !ok {
		return errConflict
	}
	return nil
}

// History returns recent trades, optionally filtered to one owner.
func (e *Engine) History(owner domain.Owner, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	if owner == "" {
		return e.trades.GetRecent(limit)
	}
	return e.trades.GetRecentByOwner(owner, limit)
}
