package trading

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/events"
	"github.com/gabe/tradelab/internal/modules/portfolio"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS portfolios (
	owner TEXT PRIMARY KEY,
	cash REAL NOT NULL CHECK (cash >= 0),
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	owner TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	avg_price REAL NOT NULL CHECK (avg_price > 0),
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (owner, symbol)
);
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner TEXT NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price REAL NOT NULL,
	reasoning TEXT NOT NULL DEFAULT 'No reasoning',
	source TEXT NOT NULL DEFAULT 'human',
	created_at INTEGER NOT NULL
);
`

type testEnv struct {
	db         *sql.DB
	engine     *Engine
	portfolios *portfolio.PortfolioRepository
	positions  *portfolio.PositionRepository
	trades     *TradeRepository
	bus        *events.Bus
}

func setupEngine(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	for _, table := range []string{"trades", "positions", "portfolios"} {
		_, err = db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}

	log := zerolog.New(nil).Level(zerolog.Disabled)
	portfolios := portfolio.NewPortfolioRepository(db, log)
	positions := portfolio.NewPositionRepository(db, log)
	trades := NewTradeRepository(db, log)
	bus := events.NewBus()

	return &testEnv{
		db:         db,
		engine:     NewEngine(db, portfolios, positions, trades, bus, log),
		portfolios: portfolios,
		positions:  positions,
		trades:     trades,
		bus:        bus,
	}
}

func buy(symbol string, qty int64) domain.TradeIntent {
	return domain.TradeIntent{Action: domain.ActionBuy, Symbol: symbol, Quantity: qty}
}

func sell(symbol string, qty int64) domain.TradeIntent {
	return domain.TradeIntent{Action: domain.ActionSell, Symbol: symbol, Quantity: qty}
}

func TestBuyDebitsCashAndOpensPosition(t *testing.T) {
	env := setupEngine(t)

	trade, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 5), 150, domain.SourceHuman)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionBuy, trade.Action)
	assert.Equal(t, int64(5), trade.Quantity)
	assert.Equal(t, 150.0, trade.Price)
	assert.NotZero(t, trade.ID)

	p, err := env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, p.Cash, 1e-9)

	pos, err := env.positions.Get(domain.OwnerHuman, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, int64(5), pos.Quantity)
	assert.Equal(t, 150.0, pos.AvgPrice)
}

func TestBuyPreservesAccountValue(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("NVDA", 4), 100, domain.SourceHuman)
	require.NoError(t, err)

	p, err := env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	pos, err := env.positions.Get(domain.OwnerHuman, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, pos)

	// A buy at cost basis moves money between cash and position,
	// never creates or destroys it.
	assert.InDelta(t, domain.InitialCapital, p.Cash+pos.CostBasis(), 1e-9)
}

func TestBuyFoldsIntoWeightedAverage(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("XYZ", 5), 100, domain.SourceHuman)
	require.NoError(t, err)

	_, err = env.engine.Execute(domain.OwnerHuman, buy("XYZ", 2), 120, domain.SourceHuman)
	require.NoError(t, err)

	pos, err := env.positions.Get(domain.OwnerHuman, "XYZ")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, int64(7), pos.Quantity)
	// (100*5 + 120*2) / 7
	assert.InDelta(t, 105.714285714, pos.AvgPrice, 1e-6)
}

func TestSellKeepsAveragePrice(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("XYZ", 10), 100, domain.SourceHuman)
	require.NoError(t, err)

	_, err = env.engine.Execute(domain.OwnerHuman, sell("XYZ", 4), 130, domain.SourceHuman)
	require.NoError(t, err)

	pos, err := env.positions.Get(domain.OwnerHuman, "XYZ")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, int64(6), pos.Quantity)
	assert.Equal(t, 100.0, pos.AvgPrice, "selling must not touch the average")

	p, err := env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 1000-10*100+4*130, p.Cash, 1e-9)
}

func TestSellToZeroDeletesPosition(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 3), 150, domain.SourceHuman)
	require.NoError(t, err)

	_, err = env.engine.Execute(domain.OwnerHuman, sell("AAPL", 3), 150, domain.SourceHuman)
	require.NoError(t, err)

	pos, err := env.positions.Get(domain.OwnerHuman, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, pos, "zero-quantity positions must not exist as rows")
}

func TestFullRoundTrip(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 5), 150, domain.SourceHuman)
	require.NoError(t, err)

	p, err := env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, p.Cash, 1e-9)

	_, err = env.engine.Execute(domain.OwnerHuman, sell("AAPL", 5), 160, domain.SourceHuman)
	require.NoError(t, err)

	p, err = env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 1050.0, p.Cash, 1e-9)

	trades, err := env.engine.History(domain.OwnerHuman, 10)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestInsufficientCashLeavesLedgerUntouched(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("SPY", 2), 550, domain.SourceHuman)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientCash)

	var detail *domain.InsufficientCashError
	require.ErrorAs(t, err, &detail)
	assert.InDelta(t, 1100.0, detail.Required, 1e-9)
	assert.InDelta(t, 1000.0, detail.Available, 1e-9)

	p, err := env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p.Cash)

	trades, err := env.engine.History(domain.OwnerHuman, 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestSellMoreThanHeld(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 2), 150, domain.SourceHuman)
	require.NoError(t, err)

	_, err = env.engine.Execute(domain.OwnerHuman, sell("AAPL", 3), 150, domain.SourceHuman)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	var detail *domain.InsufficientSharesError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, int64(3), detail.Requested)
	assert.Equal(t, int64(2), detail.Held)
}

func TestSellSymbolNeverHeld(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, sell("NVDA", 1), 100, domain.SourceHuman)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)
}

func TestRejectsBadQuantity(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 0), 150, domain.SourceHuman)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = env.engine.Execute(domain.OwnerHuman, buy("AAPL", -4), 150, domain.SourceHuman)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestRejectsEmptySymbol(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("   ", 1), 150, domain.SourceHuman)
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
}

func TestRejectsBadPrice(t *testing.T) {
	env := setupEngine(t)

	for _, price := range []float64{0, -12.5, math.NaN(), math.Inf(1)} {
		_, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 1), price, domain.SourceHuman)
		assert.ErrorIs(t, err, domain.ErrPriceUnavailable, "price %v must be rejected", price)
	}
}

func TestRejectsHoldAction(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, domain.TradeIntent{
		Action: domain.ActionHold, Symbol: "AAPL", Quantity: 1,
	}, 150, domain.SourceAgent)
	require.Error(t, err)
}

func TestSymbolIsNormalized(t *testing.T) {
	env := setupEngine(t)

	trade, err := env.engine.Execute(domain.OwnerHuman, buy(" aapl ", 1), 150, domain.SourceHuman)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", trade.Symbol)
}

func TestEmptyReasoningGetsDefault(t *testing.T) {
	env := setupEngine(t)

	trade, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 1), 150, domain.SourceHuman)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultReasoning, trade.Reasoning)
}

func TestOwnersAreIsolated(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerAgent, buy("AAPL", 5), 150, domain.SourceAgent)
	require.NoError(t, err)

	p, err := env.portfolios.GetOrCreate(domain.OwnerHuman)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p.Cash, "one owner's trade must not touch the other's cash")

	pos, err := env.positions.Get(domain.OwnerHuman, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestPublishesTradeExecutedEvent(t *testing.T) {
	env := setupEngine(t)

	var mu sync.Mutex
	var got []*events.Event
	env.bus.Subscribe(events.TradeExecuted, func(e *events.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})

	_, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 1), 150, domain.SourceHuman)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	data, ok := got[0].Data.(events.TradeExecutedData)
	require.True(t, ok)
	assert.Equal(t, "AAPL", data.Symbol)
	assert.Equal(t, "BUY", data.Action)
}

func TestConcurrentBuysNeverOverspend(t *testing.T) {
	env := setupEngine(t)

	// Each buy is affordable alone; together they exceed the balance.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.engine.Execute(domain.OwnerHuman, buy("BIG", 1), 600, domain.SourceHuman)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientCash)
		}
	}
	assert.Equal(t, 1, succeeded)

	p, err := env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 400.0, p.Cash, 1e-9)
	assert.GreaterOrEqual(t, p.Cash, 0.0)
}

func TestExistingBalanceIsRespected(t *testing.T) {
	env := setupEngine(t)

	// A pre-existing portfolio row must not be re-seeded to the
	// initial capital.
	_, err := env.db.Exec("INSERT INTO portfolios (owner, cash, updated_at) VALUES (?, ?, ?)",
		string(domain.OwnerHuman), 500.0, time.Now().Unix())
	require.NoError(t, err)

	_, err = env.engine.Execute(domain.OwnerHuman, buy("AAPL", 2), 150, domain.SourceHuman)
	require.NoError(t, err)

	p, err := env.portfolios.Get(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, p.Cash, 1e-9)
}

func TestHistoryNewestFirst(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("AAPL", 1), 150, domain.SourceHuman)
	require.NoError(t, err)
	_, err = env.engine.Execute(domain.OwnerHuman, buy("NVDA", 1), 100, domain.SourceHuman)
	require.NoError(t, err)

	trades, err := env.engine.History("", 50)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "NVDA", trades[0].Symbol)
	assert.Equal(t, "AAPL", trades[1].Symbol)
}

func TestValidationErrorsAreTerminal(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Execute(domain.OwnerHuman, buy("SPY", 100), 550, domain.SourceHuman)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.False(t, errors.Is(err, domain.ErrStoreUnavailable))
}
