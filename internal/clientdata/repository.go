// Package clientdata provides persistent caching for external API client
// responses. Quotes are stored as msgpack blobs with fetch timestamps for
// cache-first behavior.
package clientdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gabe/tradelab/internal/domain"
)

// Repository provides cache operations for quote data.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StoreQuote upserts a quote into the cache.
func (r *Repository) StoreQuote(quote *domain.Quote) error {
	payload, err := msgpack.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO quote_cache (symbol, payload, fetched_at) VALUES (?, ?, ?)",
		quote.Symbol, payload, quote.FetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store quote for %s: %w", quote.Symbol, err)
	}

	return nil
}

// GetFreshQuote returns the cached quote for a symbol if it was fetched
// within maxAge. Returns nil, nil on a miss or a stale entry.
func (r *Repository) GetFreshQuote(symbol string, maxAge time.Duration) (*domain.Quote, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	var payload []byte
	err := r.db.QueryRow(
		"SELECT payload FROM quote_cache WHERE symbol = ? AND fetched_at > ?",
		symbol, cutoff,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote for %s: %w", symbol, err)
	}

	var quote domain.Quote
	if err := msgpack.Unmarshal(payload, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote for %s: %w", symbol, err)
	}

	return &quote, nil
}

// DeleteStale removes all entries older than maxAge.
// Returns the number of rows deleted.
func (r *Repository) DeleteStale(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := r.db.Exec("DELETE FROM quote_cache WHERE fetched_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale quotes: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
