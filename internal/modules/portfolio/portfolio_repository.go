// Package portfolio tracks cash balances and positions for both
// competitors and derives the valuation views built on them.
package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
)

// PortfolioRepository handles portfolio (cash) database operations.
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// GetOrCreate returns the portfolio for an owner, seeding it with the
// initial capital on first touch.
func (r *PortfolioRepository) GetOrCreate(owner domain.Owner) (*domain.Portfolio, error) {
	_, err := r.db.Exec(
		"INSERT OR IGNORE INTO portfolios (owner, cash, updated_at) VALUES (?, ?, ?)",
		string(owner), domain.InitialCapital, time.Now().UTC().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed portfolio for %s: %w", owner, err)
	}

	return r.Get(owner)
}

// Get returns the portfolio for an owner.
func (r *PortfolioRepository) Get(owner domain.Owner) (*domain.Portfolio, error) {
	var p domain.Portfolio
	var updatedAt int64

	err := r.db.QueryRow(
		"SELECT owner, cash, updated_at FROM portfolios WHERE owner = ?",
		string(owner),
	).Scan(&p.Owner, &p.Cash, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("portfolio for %s: %w", owner, domain.ErrStoreUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio for %s: %w", owner, err)
	}

	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &p, nil
}

// UpdateCashTx sets the cash balance inside a transaction, conditional on
// the balance still holding its previously-read value. Returns false when
// a concurrent writer got there first; the caller re-reads and retries.
func (r *PortfolioRepository) UpdateCashTx(tx *sql.Tx, owner domain.Owner, expectedCash, newCash float64) (bool, error) {
	result, err := tx.Exec(
		"UPDATE portfolios SET cash = ?, updated_at = ? WHERE owner = ? AND cash = ?",
		newCash, time.Now().UTC().Unix(), string(owner), expectedCash,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update cash for %s: %w", owner, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}
