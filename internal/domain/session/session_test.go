package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

var (
	d1 = timerange.MustDate("2024-06-01")
	d2 = timerange.MustDate("2024-06-02")
)

func fixedNow() time.Time { return time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC) }

func newSpot(t *testing.T) spots.Spot {
	t.Helper()
	s, err := spots.NewSpot(spots.NewSpotParams{
		ID:        "9",
		Title:     "Vaga Funcionários",
		PriceHour: money.Must(1000, "BRL"),
		PriceDay:  money.Must(5000, "BRL"),
		SlotCount: 2,
	})
	require.NoError(t, err)
	return s
}

// index builds a two-slot snapshot for date where slot 2 is fully taken.
func index(t *testing.T, spot spots.Spot, date timerange.Date) *availability.Index {
	t.Helper()
	snap := availability.Snapshot{Dates: []availability.DaySnapshot{{
		Date: date.String(), DayStart: "08:00", DayEnd: "18:00",
		Slots: []availability.SlotSnapshot{
			{Number: 1, Occupied: []availability.RawInterval{{Start: "09:00", End: "10:00"}}},
			{Number: 2, Occupied: []availability.RawInterval{{Start: "08:00", End: "18:00"}}},
		},
	}}}
	return availability.Build(spot, []timerange.Date{date}, snap, time.UTC, fixedNow())
}

func openAt(t *testing.T, date timerange.Date) (*Session, spots.Spot) {
	t.Helper()
	spot := newSpot(t)
	s := Open("s-1", spot, fixedNow)
	ticket, err := s.BeginDateSelection(date)
	require.NoError(t, err)
	require.True(t, s.ResolveAvailability(ticket, index(t, spot, date), nil))
	return s, spot
}

func TestSession_HappyPath(t *testing.T) {
	s, _ := openAt(t, d1)
	assert.Equal(t, StateDateSelected, s.State())

	ok, err := s.SelectSlot(1)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.SelectMode(booking.ModeHourly)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.SetTimes("10:00", "11:00"))

	assert.Equal(t, int64(1000), s.View().Quote().Total().Amount)

	sub, err := s.BeginConfirmation(booking.NewValidator(fixedNow))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), sub.Quote.Total().Amount)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), sub.Booking.Start)

	applied := s.CompleteConfirmation(sub, reservations.Reservation{ID: "r-1", Status: reservations.StatusPending}, nil)
	assert.True(t, applied)
	assert.Equal(t, StateConfirmed, s.State())
	require.NotNil(t, s.View().Reservation)

	s.Close()
	assert.Equal(t, StateClosed, s.State())

	var names []string
	for _, e := range s.DrainEvents() {
		names = append(names, e.EventName())
	}
	assert.Equal(t, []string{"booking.session_opened", "booking.validated", "booking.submitted", "booking.session_closed"}, names)
	assert.Empty(t, s.DrainEvents())
}

func TestSession_SupersededFetchIsDropped(t *testing.T) {
	spot := newSpot(t)
	s := Open("s-1", spot, fixedNow)

	first, err := s.BeginDateSelection(d1)
	require.NoError(t, err)
	second, err := s.BeginDateSelection(d2)
	require.NoError(t, err)
	assert.True(t, s.View().FetchPending)

	require.True(t, s.ResolveAvailability(second, index(t, spot, d2), nil))
	assert.False(t, s.ResolveAvailability(first, index(t, spot, d1), nil))

	v := s.View()
	assert.Equal(t, d2, v.Date)
	assert.False(t, v.FetchPending)
	require.NotNil(t, v.Window)
	assert.Equal(t, d2, v.Window.Date)
}

func TestSession_FetchFailureKeepsState(t *testing.T) {
	s := Open("s-1", newSpot(t), fixedNow)
	ticket, err := s.BeginDateSelection(d1)
	require.NoError(t, err)

	boom := errors.New("unreachable")
	assert.True(t, s.ResolveAvailability(ticket, nil, boom))
	assert.Equal(t, StateSpotSelected, s.State())
	assert.ErrorIs(t, s.View().FetchError, boom)
}

func TestSession_FullSlotIsNoOp(t *testing.T) {
	s, _ := openAt(t, d1)

	ok, err := s.SelectSlot(2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateDateSelected, s.State())

	ok, err = s.SelectSlot(5)
	require.NoError(t, err)
	assert.False(t, ok)

	views := s.View().Slots
	require.Len(t, views, 2)
	assert.Equal(t, availability.Partial, views[0].Occupancy)
	assert.Equal(t, availability.Full, views[1].Occupancy)
	assert.False(t, views[1].Selectable)
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := Open("s-1", newSpot(t), fixedNow)

	_, err := s.SelectSlot(1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.SelectMode(booking.ModeDaily)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.BeginConfirmation(booking.NewValidator(fixedNow))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s2, _ := openAt(t, d1)
	_, err = s2.SelectSlot(1)
	require.NoError(t, err)
	_, err = s2.SelectMode(booking.ModeNone)
	assert.ErrorIs(t, err, booking.ErrMissingMode)
}

func TestSession_RejectionIsSurfacedVerbatim(t *testing.T) {
	s, _ := openAt(t, d1)
	_, err := s.SelectSlot(1)
	require.NoError(t, err)
	_, err = s.SelectMode(booking.ModeHourly)
	require.NoError(t, err)
	require.NoError(t, s.SetTimes("09:30", "10:30"))

	_, err = s.BeginConfirmation(booking.NewValidator(fixedNow))
	assert.ErrorIs(t, err, booking.ErrTimeOverlap)
	assert.Equal(t, StateModeSelected, s.State())
	assert.Equal(t, err, s.View().LastRejection)
}

func TestSession_ConflictRequiresRefresh(t *testing.T) {
	s, spot := openAt(t, d1)
	_, err := s.SelectSlot(1)
	require.NoError(t, err)
	_, err = s.SelectMode(booking.ModeDaily)
	require.NoError(t, err)
	_, err = s.BeginConfirmation(booking.NewValidator(fixedNow))
	assert.ErrorIs(t, err, booking.ErrTimeOverlap, "daily needs a slot without reservations")

	ok, err := s.SelectSlot(1)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = s.SelectMode(booking.ModeHourly)
	require.NoError(t, err)
	require.NoError(t, s.SetTimes("12:00", "13:00"))

	sub, err := s.BeginConfirmation(booking.NewValidator(fixedNow))
	require.NoError(t, err)
	_, err = s.BeginConfirmation(booking.NewValidator(fixedNow))
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	conflict := fmt.Errorf("create reservation: %w", reservations.ErrConflict)
	assert.True(t, s.CompleteConfirmation(sub, reservations.Reservation{}, conflict))
	assert.Equal(t, StateModeSelected, s.State())
	assert.True(t, s.View().NeedsRefresh)

	_, err = s.BeginConfirmation(booking.NewValidator(fixedNow))
	assert.ErrorIs(t, err, ErrRefreshRequired)

	ticket, err := s.BeginDateSelection(d1)
	require.NoError(t, err)
	require.True(t, s.ResolveAvailability(ticket, index(t, spot, d1), nil))
	assert.False(t, s.View().NeedsRefresh)
	assert.Equal(t, StateDateSelected, s.State())
}

func TestSession_CloseDropsInFlightResults(t *testing.T) {
	spot := newSpot(t)
	s := Open("s-1", spot, fixedNow)
	ticket, err := s.BeginDateSelection(d1)
	require.NoError(t, err)

	s.Close()
	s.Close()

	assert.False(t, s.ResolveAvailability(ticket, index(t, spot, d1), nil))
	assert.Equal(t, StateClosed, s.State())
	_, err = s.BeginDateSelection(d1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_CancelDropsSubmission(t *testing.T) {
	s, _ := openAt(t, d1)
	_, err := s.SelectSlot(1)
	require.NoError(t, err)
	_, err = s.SelectMode(booking.ModeHourly)
	require.NoError(t, err)
	require.NoError(t, s.SetTimes("14:00", "15:00"))
	sub, err := s.BeginConfirmation(booking.NewValidator(fixedNow))
	require.NoError(t, err)

	require.NoError(t, s.Cancel())
	assert.False(t, s.CompleteConfirmation(sub, reservations.Reservation{ID: "late"}, nil))
	assert.Equal(t, StateCancelled, s.State())
	assert.Nil(t, s.View().Reservation)
	assert.ErrorIs(t, s.Cancel(), ErrInvalidTransition)
}

func TestView_QuoteDailyAndUnparsedHourly(t *testing.T) {
	s, _ := openAt(t, d1)
	_, err := s.SelectSlot(1)
	require.NoError(t, err)
	_, err = s.SelectMode(booking.ModeDaily)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), s.View().Quote().Total().Amount)

	_, err = s.SelectMode(booking.ModeHourly)
	require.NoError(t, err)
	assert.True(t, s.View().Quote().Total().IsZero())
}
