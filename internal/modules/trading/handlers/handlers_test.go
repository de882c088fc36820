package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/gabe/tradelab/internal/events"
	"github.com/gabe/tradelab/internal/modules/portfolio"
	"github.com/gabe/tradelab/internal/modules/trading"
)

const handlerSchema = `
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

func setupRouter(t *testing.T) chi.Router {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(handlerSchema)
	require.NoError(t, err)
	for _, table := range []string{"trades", "positions", "portfolios"} {
		_, err = db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}

	log := zerolog.New(nil).Level(zerolog.Disabled)
	engine := trading.NewEngine(
		db,
		portfolio.NewPortfolioRepository(db, log),
		portfolio.NewPositionRepository(db, log),
		trading.NewTradeRepository(db, log),
		events.NewBus(),
		log,
	)

	r := chi.NewRouter()
	NewTradingHandlers(engine, log).RegisterRoutes(r)
	return r
}

func postTrade(t *testing.T, r chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExecuteTradeCreatesTrade(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":"gabe","action":"BUY","symbol":"AAPL","quantity":2,"price":150,"reasoning":"earnings play"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"AAPL"`)
	assert.Contains(t, rec.Body.String(), `"source":"human"`)
}

func TestExecuteTradeRejectsUnknownOwner(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":"mallory","action":"BUY","symbol":"AAPL","quantity":1,"price":150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteTradeRejectsHold(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":"gabe","action":"HOLD","symbol":"AAPL","quantity":1,"price":150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteTradeRejectsBadPrice(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":"gabe","action":"BUY","symbol":"AAPL","quantity":1,"price":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "price")
}

func TestExecuteTradeInsufficientCash(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":"gabe","action":"BUY","symbol":"SPY","quantity":3,"price":550}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient cash")
}

func TestExecuteTradeInsufficientShares(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":"gabe","action":"SELL","symbol":"AAPL","quantity":1,"price":150}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExecuteTradeRejectsGarbageBody(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTradesFiltersByOwner(t *testing.T) {
	r := setupRouter(t)

	rec := postTrade(t, r, `{"owner":"gabe","action":"BUY","symbol":"AAPL","quantity":1,"price":150}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = postTrade(t, r, `{"owner":"claude","action":"BUY","symbol":"NVDA","quantity":1,"price":100}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/trades?owner=gabe", nil)
	out := httptest.NewRecorder()
	r.ServeHTTP(out, req)

	assert.Equal(t, http.StatusOK, out.Code)
	assert.Contains(t, out.Body.String(), "AAPL")
	assert.NotContains(t, out.Body.String(), "NVDA")

	req = httptest.NewRequest(http.MethodGet, "/trades?owner=nobody", nil)
	out = httptest.NewRecorder()
	r.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}
