package portfolio

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/gabe/tradelab/internal/domain"
)

func setupService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:portfolio_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS portfolios (
	owner TEXT PRIMARY KEY,
	cash REAL NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	owner TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	avg_price REAL NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (owner, symbol)
);`)
	require.NoError(t, err)
	for _, table := range []string{"positions", "portfolios"} {
		_, err = db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}

	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(NewPortfolioRepository(db, log), NewPositionRepository(db, log), log), db
}

func seedPosition(t *testing.T, db *sql.DB, owner domain.Owner, symbol string, qty int64, avg float64) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO positions (owner, symbol, quantity, avg_price, updated_at) VALUES (?, ?, ?, ?, ?)",
		string(owner), symbol, qty, avg, time.Now().Unix(),
	)
	require.NoError(t, err)
}

func seedCash(t *testing.T, db *sql.DB, owner domain.Owner, cash float64) {
	t.Helper()
	_, err := db.Exec(
		"INSERT OR REPLACE INTO portfolios (owner, cash, updated_at) VALUES (?, ?, ?)",
		string(owner), cash, time.Now().Unix(),
	)
	require.NoError(t, err)
}

func TestOwnerViewSeedsInitialCapital(t *testing.T) {
	svc, _ := setupService(t)

	view, err := svc.GetOwnerView(domain.OwnerHuman)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, view.Cash)
	assert.Equal(t, 1000.0, view.Value)
	assert.Equal(t, 0.0, view.PnL)
	assert.Empty(t, view.Positions)
}

func TestOwnerViewValuesAtCostBasis(t *testing.T) {
	svc, db := setupService(t)

	seedCash(t, db, domain.OwnerHuman, 250)
	seedPosition(t, db, domain.OwnerHuman, "AAPL", 5, 150)

	view, err := svc.GetOwnerView(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, view.Cash, 1e-9)
	assert.InDelta(t, 1000.0, view.Value, 1e-9)
	assert.InDelta(t, 0.0, view.PnL, 1e-9)
	require.Len(t, view.Positions, 1)
	assert.Equal(t, "AAPL", view.Positions[0].Symbol)
	assert.InDelta(t, 750.0, view.Positions[0].CostBasis, 1e-9)
}

func TestOwnerViewPnL(t *testing.T) {
	svc, db := setupService(t)

	seedCash(t, db, domain.OwnerHuman, 1050)

	view, err := svc.GetOwnerView(domain.OwnerHuman)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, view.PnL, 1e-9)
	assert.InDelta(t, 5.0, view.PnLPct, 1e-9)
}

func TestStandingsLeader(t *testing.T) {
	svc, db := setupService(t)

	seedCash(t, db, domain.OwnerAgent, 1100)
	seedCash(t, db, domain.OwnerHuman, 900)

	standings, err := svc.GetStandings()
	require.NoError(t, err)
	assert.Equal(t, domain.OwnerAgent, standings.Leader)
	assert.False(t, standings.Tie)
	assert.InDelta(t, 200.0, standings.Spread, 1e-9)
}

func TestStandingsTie(t *testing.T) {
	svc, _ := setupService(t)

	// Both owners seeded fresh: equal value is a tie, not a leader.
	standings, err := svc.GetStandings()
	require.NoError(t, err)
	assert.True(t, standings.Tie)
	assert.Empty(t, standings.Leader)
	assert.Zero(t, standings.Spread)
}

func TestGetAllViewsDisplayOrder(t *testing.T) {
	svc, _ := setupService(t)

	views, err := svc.GetAllViews()
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, domain.OwnerAgent, views[0].Owner)
	assert.Equal(t, domain.OwnerHuman, views[1].Owner)
}

func TestHeldSymbolsAcrossOwners(t *testing.T) {
	svc, db := setupService(t)
	_ = svc

	seedPosition(t, db, domain.OwnerAgent, "NVDA", 2, 100)
	seedPosition(t, db, domain.OwnerHuman, "AAPL", 1, 150)
	seedPosition(t, db, domain.OwnerHuman, "NVDA", 3, 90)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	symbols, err := NewPositionRepository(db, log).HeldSymbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, symbols)
}
