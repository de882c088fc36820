package portfolio

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
)

// PositionView is one holding as presented to callers.
type PositionView struct {
	Symbol    string  `json:"symbol"`
	Quantity  int64   `json:"quantity"`
	AvgPrice  float64 `json:"avg_price"`
	CostBasis float64 `json:"cost_basis"`
}

// OwnerView is the full valuation picture for one competitor.
// Value is cash plus cost basis of open positions; unrealized market
// moves are not marked in.
type OwnerView struct {
	Owner     domain.Owner   `json:"owner"`
	Cash      float64        `json:"cash"`
	Positions []PositionView `json:"positions"`
	Value     float64        `json:"value"`
	PnL       float64        `json:"pnl"`
	PnLPct    float64        `json:"pnl_pct"`
}

// Standings compares both competitors. Leader is empty on an exact tie.
type Standings struct {
	Leader domain.Owner `json:"leader,omitempty"`
	Tie    bool         `json:"tie"`
	Spread float64      `json:"spread"`
}

// Service derives valuation views from the ledger.
type Service struct {
	portfolios *PortfolioRepository
	positions  *PositionRepository
	log        zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(portfolios *PortfolioRepository, positions *PositionRepository, log zerolog.Logger) *Service {
	return &Service{
		portfolios: portfolios,
		positions:  positions,
		log:        log.With().Str("service", "portfolio").Logger(),
	}
}

// GetOwnerView builds the valuation view for one competitor.
func (s *Service) GetOwnerView(owner domain.Owner) (*OwnerView, error) {
	p, err := s.portfolios.GetOrCreate(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	positions, err := s.positions.GetByOwner(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	views := make([]PositionView, 0, len(positions))
	value := p.Cash
	for _, pos := range positions {
		views = append(views, PositionView{
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			AvgPrice:  pos.AvgPrice,
			CostBasis: pos.CostBasis(),
		})
		value += pos.CostBasis()
	}

	pnl := value - domain.InitialCapital
	return &OwnerView{
		Owner:     owner,
		Cash:      p.Cash,
		Positions: views,
		Value:     value,
		PnL:       pnl,
		PnLPct:    pnl / domain.InitialCapital * 100,
	}, nil
}

// GetAllViews builds views for both competitors in display order.
func (s *Service) GetAllViews() ([]OwnerView, error) {
	views := make([]OwnerView, 0, 2)
	for _, owner := range domain.Owners() {
		v, err := s.GetOwnerView(owner)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// GetStandings computes the leaderboard. The leader must be strictly
// ahead; equal values are a tie.
func (s *Service) GetStandings() (*Standings, error) {
	views, err := s.GetAllViews()
	if err != nil {
		return nil, err
	}

	a, b := views[0], views[1]
	standings := &Standings{Spread: math.Abs(a.Value - b.Value)}
	switch {
	case a.Value > b.Value:
		standings.Leader = a.Owner
	case b.Value > a.Value:
		standings.Leader = b.Owner
	default:
		standings.Tie = true
	}

	return standings, nil
}
