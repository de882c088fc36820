package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
)

// PositionRepository handles position database operations.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

const positionColumns = "owner, symbol, quantity, avg_price, updated_at"

func scanPosition(row interface{ Scan(...interface{}) error }) (domain.Position, error) {
	var pos domain.Position
	var updatedAt int64
	if err := row.Scan(&pos.Owner, &pos.Symbol, &pos.Quantity, &pos.AvgPrice, &updatedAt); err != nil {
		return domain.Position{}, err
	}
	pos.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return pos, nil
}

// GetByOwner returns all positions held by one owner, ordered by symbol.
func (r *PositionRepository) GetByOwner(owner domain.Owner) ([]domain.Position, error) {
	rows, err := r.db.Query(
		"SELECT "+positionColumns+" FROM positions WHERE owner = ? ORDER BY symbol",
		string(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions for %s: %w", owner, err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// Get returns one position, or nil when the owner holds no shares of the
// symbol. A missing row is not an error; zero-quantity rows never exist.
func (r *PositionRepository) Get(owner domain.Owner, symbol string) (*domain.Position, error) {
	row := r.db.QueryRow(
		"SELECT "+positionColumns+" FROM positions WHERE owner = ? AND symbol = ?",
		string(owner), symbol,
	)

	pos, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query position %s/%s: %w", owner, symbol, err)
	}

	return &pos, nil
}

// InsertTx creates a new position row inside a transaction.
func (r *PositionRepository) InsertTx(tx *sql.Tx, pos domain.Position) error {
	_, err := tx.Exec(
		"INSERT INTO positions (owner, symbol, quantity, avg_price, updated_at) VALUES (?, ?, ?, ?, ?)",
		string(pos.Owner), pos.Symbol, pos.Quantity, pos.AvgPrice, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert position %s/%s: %w", pos.Owner, pos.Symbol, err)
	}
	return nil
}

// UpdateTx rewrites quantity and average price inside a transaction,
// conditional on the quantity still holding its previously-read value.
func (r *PositionRepository) UpdateTx(tx *sql.Tx, owner domain.Owner, symbol string, expectedQty, newQty int64, newAvgPrice float64) (bool, error) {
	result, err := tx.Exec(
		"UPDATE positions SET quantity = ?, avg_price = ?, updated_at = ? WHERE owner = ? AND symbol = ? AND quantity = ?",
		newQty, newAvgPrice, time.Now().UTC().Unix(), string(owner), symbol, expectedQty,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update position %s/%s: %w", owner, symbol, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// DeleteTx removes a position inside a transaction, conditional on the
// quantity still holding its previously-read value.
func (r *PositionRepository) DeleteTx(tx *sql.Tx, owner domain.Owner, symbol string, expectedQty int64) (bool, error) {
	result, err := tx.Exec(
		"DELETE FROM positions WHERE owner = ? AND symbol = ? AND quantity = ?",
		string(owner), symbol, expectedQty,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete position %s/%s: %w", owner, symbol, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// HeldSymbols returns the distinct symbols held across all owners.
func (r *PositionRepository) HeldSymbols() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT symbol FROM positions ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query held symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}
