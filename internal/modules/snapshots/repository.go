// Package snapshots records a daily value snapshot per competitor and
// derives return statistics from the series.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
)

// Snapshot is one end-of-day record of a competitor's standing.
type Snapshot struct {
	ID        int64        `json:"id"`
	Owner     domain.Owner `json:"owner"`
	Day       string       `json:"day"`
	Cash      float64      `json:"cash"`
	Value     float64      `json:"value"`
	PnL       float64      `json:"pnl"`
	CreatedAt time.Time    `json:"created_at"`
}

// Repository handles snapshot database operations against history.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Upsert writes the snapshot for one owner and day. Re-running the job
// on the same day overwrites rather than duplicating.
func (r *Repository) Upsert(s Snapshot) error {
	_, err := r.db.Exec(
		`INSERT INTO snapshots (owner, day, cash, value, pnl, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner, day) DO UPDATE SET cash = excluded.cash, value = excluded.value,
		 pnl = excluded.pnl, created_at = excluded.created_at`,
		string(s.Owner), s.Day, s.Cash, s.Value, s.PnL, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot for %s/%s: %w", s.Owner, s.Day, err)
	}
	return nil
}

// GetByOwner returns an owner's snapshots, oldest first, capped at limit.
func (r *Repository) GetByOwner(owner domain.Owner, limit int) ([]Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, owner, day, cash, value, pnl, created_at FROM
		 (SELECT * FROM snapshots WHERE owner = ? ORDER BY day DESC LIMIT ?)
		 ORDER BY day ASC`,
		string(owner), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %w", owner, err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var s Snapshot
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.Owner, &s.Day, &s.Cash, &s.Value, &s.PnL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}
