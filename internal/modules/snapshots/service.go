package snapshots

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
	"github.com/gabe/tradelab/internal/events"
	"github.com/gabe/tradelab/internal/modules/portfolio"
	"github.com/gabe/tradelab/pkg/formulas"
)

// Stats summarizes an owner's snapshot series.
type Stats struct {
	Days            int     `json:"days"`
	MeanDailyReturn float64 `json:"mean_daily_return"`
	ReturnStdDev    float64 `json:"return_std_dev"`
	BestDay         float64 `json:"best_day"`
	WorstDay        float64 `json:"worst_day"`
}

// History is the response shape for an owner's snapshot series.
type History struct {
	Owner     domain.Owner `json:"owner"`
	Snapshots []Snapshot   `json:"snapshots"`
	Stats     *Stats       `json:"stats,omitempty"`
}

// Service takes and serves daily snapshots.
type Service struct {
	repo       *Repository
	portfolios *portfolio.Service
	bus        *events.Bus
	log        zerolog.Logger
}

// NewService creates a new snapshot service
func NewService(repo *Repository, portfolios *portfolio.Service, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		portfolios: portfolios,
		bus:        bus,
		log:        log.With().Str("service", "snapshots").Logger(),
	}
}

// TakeSnapshots records today's value for both competitors.
func (s *Service) TakeSnapshots() error {
	day := time.Now().UTC().Format("2006-01-02")
	var taken []string

	for _, owner := range domain.Owners() {
		view, err := s.portfolios.GetOwnerView(owner)
		if err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", owner, err)
		}

		err = s.repo.Upsert(Snapshot{
			Owner: owner,
			Day:   day,
			Cash:  view.Cash,
			Value: view.Value,
			PnL:   view.PnL,
		})
		if err != nil {
			return err
		}
		taken = append(taken, string(owner))
	}

	s.log.Info().Str("day", day).Msg("Daily snapshots recorded")
	s.bus.Publish(events.SnapshotTaken, events.SnapshotTakenData{Owners: len(taken)})
	return nil
}

// GetHistory returns an owner's snapshot series with return statistics.
func (s *Service) GetHistory(owner domain.Owner, limit int) (*History, error) {
	if limit <= 0 {
		limit = 90
	}

	snapshots, err := s.repo.GetByOwner(owner, limit)
	if err != nil {
		return nil, err
	}

	history := &History{Owner: owner, Snapshots: snapshots}
	if len(snapshots) >= 2 {
		values := make([]float64, len(snapshots))
		for i, snap := range snapshots {
			values[i] = snap.Value
		}
		returns := formulas.CalculateReturns(values)

		best, worst := returns[0], returns[0]
		for _, r := range returns[1:] {
			best = math.Max(best, r)
			worst = math.Min(worst, r)
		}

		history.Stats = &Stats{
			Days:            len(snapshots),
			MeanDailyReturn: formulas.Mean(returns),
			ReturnStdDev:    formulas.StdDev(returns),
			BestDay:         best,
			WorstDay:        worst,
		}
	}

	return history, nil
}
