// Package trading executes validated trades against the ledger and
// keeps the append-only trade history.
package trading

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
)

// TradeRepository handles trade history database operations.
// Trades are append-only; there are no update or delete paths.
type TradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		db:  db,
		log: log.With().Str("repo", "trade").Logger(),
	}
}

// CreateTx appends a trade inside a transaction and returns its id.
func (r *TradeRepository) CreateTx(tx *sql.Tx, trade *domain.Trade) (int64, error) {
	result, err := tx.Exec(
		`INSERT INTO trades (owner, symbol, action, quantity, price, reasoning, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(trade.Owner), trade.Symbol, string(trade.Action), trade.Quantity,
		trade.Price, trade.Reasoning, string(trade.Source), trade.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get trade id: %w", err)
	}

	return id, nil
}

const tradeColumns = "id, owner, symbol, action, quantity, price, reasoning, source, created_at"

func scanTrade(rows *sql.Rows) (domain.Trade, error) {
	var t domain.Trade
	var createdAt int64
	err := rows.Scan(&t.ID, &t.Owner, &t.Symbol, &t.Action, &t.Quantity, &t.Price, &t.Reasoning, &t.Source, &createdAt)
	if err != nil {
		return domain.Trade{}, err
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}

// GetRecent returns the most recent trades across both owners,
// newest first.
func (r *TradeRepository) GetRecent(limit int) ([]domain.Trade, error) {
	rows, err := r.db.Query(
		"SELECT "+tradeColumns+" FROM trades ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// GetRecentByOwner returns the most recent trades for one owner,
// newest first.
func (r *TradeRepository) GetRecentByOwner(owner domain.Owner, limit int) ([]domain.Trade, error) {
	rows, err := r.db.Query(
		"SELECT "+tradeColumns+" FROM trades WHERE owner = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		string(owner), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for %s: %w", owner, err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

func collectTrades(rows *sql.Rows) ([]domain.Trade, error) {
	trades := []domain.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}
