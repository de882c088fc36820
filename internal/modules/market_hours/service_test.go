package market_hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYorkService(t *testing.T, at time.Time) *Service {
	t.Helper()
	s, err := NewServiceAt("America/New_York", func() time.Time { return at })
	require.NoError(t, err)
	return s
}

func nyTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func TestIsOpenDuringSession(t *testing.T) {
	// Wednesday 2026-08-26, 10:30 New York
	s := newYorkService(t, nyTime(t, 2026, time.August, 26, 10, 30))
	assert.True(t, s.IsOpen())
}

func TestIsOpenAtOpeningBell(t *testing.T) {
	s := newYorkService(t, nyTime(t, 2026, time.August, 26, 9, 0))
	assert.True(t, s.IsOpen())
}

func TestClosedAtClosingBell(t *testing.T) {
	// 16:00 exactly is outside the session
	s := newYorkService(t, nyTime(t, 2026, time.August, 26, 16, 0))
	assert.False(t, s.IsOpen())
}

func TestClosedBeforeOpen(t *testing.T) {
	s := newYorkService(t, nyTime(t, 2026, time.August, 26, 8, 59))
	assert.False(t, s.IsOpen())
}

func TestClosedOnWeekend(t *testing.T) {
	// Saturday and Sunday, mid-session hours
	s := newYorkService(t, nyTime(t, 2026, time.August, 29, 11, 0))
	assert.False(t, s.IsOpen())

	s = newYorkService(t, nyTime(t, 2026, time.August, 30, 11, 0))
	assert.False(t, s.IsOpen())
}

func TestSessionFollowsExchangeTimezone(t *testing.T) {
	// 14:00 UTC on a Wednesday is 10:00 in New York: open even though
	// the wall clock elsewhere says otherwise.
	s := newYorkService(t, time.Date(2026, time.August, 26, 14, 0, 0, 0, time.UTC))
	assert.True(t, s.IsOpen())

	// 21:00 UTC is 17:00 in New York: closed.
	s = newYorkService(t, time.Date(2026, time.August, 26, 21, 0, 0, 0, time.UTC))
	assert.False(t, s.IsOpen())
}

func TestGetStatus(t *testing.T) {
	s := newYorkService(t, nyTime(t, 2026, time.August, 26, 10, 30))
	status := s.GetStatus()
	assert.True(t, status.Open)
	assert.Equal(t, "America/New_York", status.Timezone)
	assert.Equal(t, "09:00-16:00 Mon-Fri", status.Session)
}

func TestNewServiceRejectsBadTimezone(t *testing.T) {
	_, err := NewService("Not/AZone")
	assert.Error(t, err)
}
