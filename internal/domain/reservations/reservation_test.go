package reservations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/shared/timerange"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusConfirmed, ParseStatus(" Confirmed "))
	assert.Equal(t, "Recusada", StatusRefused.Label())
	assert.Equal(t, "active", ParseStatus("active").Label())
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("APPROVE")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseAction("maybe")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestNewCreateRequest_UsesUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	date := timerange.MustDate("2024-06-01")
	vb := booking.ValidatedBooking{
		SpotID:     "3",
		SlotNumber: 2,
		Mode:       booking.ModeHourly,
		Start:      timerange.MustClock("10:00").On(date, loc),
		End:        timerange.MustClock("11:00").On(date, loc),
	}

	req := NewCreateRequest(vb, "key-1")

	assert.Equal(t, time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.UTC, req.Start.Location())
	assert.Equal(t, 2, req.SlotNumber)
	assert.Equal(t, "key-1", req.IdempotencyKey)
}
