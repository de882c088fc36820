// Package market_hours provides market session checking functionality.
package market_hours

import (
	"fmt"
	"time"
)

// Trading session bounds in exchange-local time. The session is
// [open, close): 09:00:00 trades, 16:00:00 does not.
const (
	openHour  = 9
	closeHour = 16
)

// Status describes the current market session.
type Status struct {
	Open      bool   `json:"open"`
	Timezone  string `json:"timezone"`
	LocalTime string `json:"local_time"`
	Session   string `json:"session"`
}

// Service answers whether the equities market is open for trading.
// Weekends are closed; exchange holidays are not modeled, so a holiday
// weekday reads as open.
type Service struct {
	location *time.Location
	now      func() time.Time
}

// NewService creates a market hours service for the given IANA timezone.
func NewService(timezone string) (*Service, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load market timezone %q: %w", timezone, err)
	}
	return &Service{location: loc, now: time.Now}, nil
}

// NewServiceAt creates a service with a fixed clock, for tests.
func NewServiceAt(timezone string, now func() time.Time) (*Service, error) {
	s, err := NewService(timezone)
	if err != nil {
		return nil, err
	}
	s.now = now
	return s, nil
}

// IsOpen reports whether the market is open right now.
func (s *Service) IsOpen() bool {
	return s.isOpenAt(s.now())
}

func (s *Service) isOpenAt(t time.Time) bool {
	local := t.In(s.location)

	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}

	return local.Hour() >= openHour && local.Hour() < closeHour
}

// GetStatus returns the current session status.
func (s *Service) GetStatus() Status {
	local := s.now().In(s.location)
	return Status{
		Open:      s.isOpenAt(local),
		Timezone:  s.location.String(),
		LocalTime: local.Format(time.RFC3339),
		Session:   fmt.Sprintf("%02d:00-%02d:00 Mon-Fri", openHour, closeHour),
	}
}
