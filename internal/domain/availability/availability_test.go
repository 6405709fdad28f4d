package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

type stubDirectory struct {
	spots map[spots.SpotID]spots.Spot
}

func (d stubDirectory) Spot(_ context.Context, id spots.SpotID) (spots.Spot, error) {
	s, ok := d.spots[id]
	if !ok {
		return spots.Spot{}, spots.ErrSpotNotFound
	}
	return s, nil
}

func (d stubDirectory) List(context.Context) ([]spots.Spot, error) {
	out := make([]spots.Spot, 0, len(d.spots))
	for _, s := range d.spots {
		out = append(out, s)
	}
	return out, nil
}

type stubSource struct {
	snap  Snapshot
	err   error
	calls [][]timerange.Date
}

func (s *stubSource) Availability(_ context.Context, _ spots.SpotID, dates []timerange.Date) (Snapshot, error) {
	s.calls = append(s.calls, dates)
	return s.snap, s.err
}

func testSpot(t *testing.T, slots int) spots.Spot {
	t.Helper()
	s, err := spots.NewSpot(spots.NewSpotParams{
		ID:        "42",
		Title:     "Garagem Savassi",
		PriceHour: money.Must(1000, "BRL"),
		PriceDay:  money.Must(5000, "BRL"),
		SlotCount: slots,
	})
	require.NoError(t, err)
	return s
}

func occupied(slot int, date string, start, end string) OccupiedInterval {
	return OccupiedInterval{
		SpotID:     "42",
		SlotNumber: slot,
		Date:       timerange.MustDate(date),
		Start:      timerange.MustClock(start),
		End:        timerange.MustClock(end),
	}
}

func TestClassify_Thresholds(t *testing.T) {
	w, err := NewWindow("42", timerange.MustDate("2024-06-01"), timerange.MustClock("08:00"), timerange.MustClock("18:00"))
	require.NoError(t, err)
	require.Equal(t, 600, w.Minutes())

	assert.Equal(t, Free, Classify(w, nil))

	full := []OccupiedInterval{
		occupied(1, "2024-06-01", "08:00", "13:00"),
		occupied(1, "2024-06-01", "13:00", "18:00"),
	}
	assert.Equal(t, Full, Classify(w, full))
	assert.False(t, Full.Selectable())

	partial := []OccupiedInterval{
		occupied(1, "2024-06-01", "08:00", "13:00"),
		occupied(1, "2024-06-01", "13:00", "17:59"),
	}
	assert.Equal(t, Partial, Classify(w, partial))
	assert.True(t, Partial.Selectable())
	assert.True(t, Free.Selectable())
}

func TestClassify_OverlappingIntervalsAreSummedNaively(t *testing.T) {
	w, err := NewWindow("42", timerange.MustDate("2024-06-01"), timerange.MustClock("08:00"), timerange.MustClock("10:00"))
	require.NoError(t, err)

	// 09:00-10:00 twice covers only an hour of wall time but counts twice.
	doubled := []OccupiedInterval{
		occupied(1, "2024-06-01", "09:00", "10:00"),
		occupied(1, "2024-06-01", "09:00", "10:00"),
	}
	assert.Equal(t, Full, Classify(w, doubled))
}

func TestBuild_EverySlotPresentAndNoWindowDates(t *testing.T) {
	spot := testSpot(t, 3)
	dates := []timerange.Date{timerange.MustDate("2024-06-02"), timerange.MustDate("2024-06-01")}
	snap := Snapshot{Dates: []DaySnapshot{
		{
			Date:     "2024-06-01",
			DayStart: "08:00:00",
			DayEnd:   "18:00:00",
			Slots: []SlotSnapshot{
				{Number: 2, Occupied: []RawInterval{{Start: "09:00", End: "10:00"}}},
				{Number: 9, Occupied: []RawInterval{{Start: "09:00", End: "10:00"}}},
			},
		},
		{Date: "2024-06-02"},
		{Date: "2024-06-03", DayStart: "08:00", DayEnd: "18:00"},
	}}

	idx := Build(spot, dates, snap, time.UTC, time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, []timerange.Date{timerange.MustDate("2024-06-01"), timerange.MustDate("2024-06-02")}, idx.Dates())
	assert.Equal(t, []timerange.Date{timerange.MustDate("2024-06-01")}, idx.BookableDates())
	assert.False(t, idx.Contains(timerange.MustDate("2024-06-03")))
	assert.Equal(t, 1, idx.DroppedIntervals())

	day, ok := idx.Day(timerange.MustDate("2024-06-01"))
	require.True(t, ok)
	require.NotNil(t, day.Window)
	assert.Len(t, day.Slots, 3)
	for n := 1; n <= 3; n++ {
		_, present := day.Slots[n]
		assert.True(t, present, "slot %d", n)
	}

	views := idx.Slots(timerange.MustDate("2024-06-01"))
	require.Len(t, views, 3)
	assert.Equal(t, Free, views[0].Occupancy)
	assert.Equal(t, Partial, views[1].Occupancy)
	assert.Equal(t, 2, views[1].Number)
	assert.Equal(t, Free, views[2].Occupancy)

	noWindow, ok := idx.Day(timerange.MustDate("2024-06-02"))
	require.True(t, ok)
	assert.Nil(t, noWindow.Window)
	assert.Empty(t, noWindow.Slots)
	assert.Nil(t, idx.Slots(timerange.MustDate("2024-06-02")))
}

func TestBuild_DropsMalformedIntervalsAndInvertedWindows(t *testing.T) {
	spot := testSpot(t, 1)
	dates := []timerange.Date{timerange.MustDate("2024-06-01"), timerange.MustDate("2024-06-02")}
	snap := Snapshot{Dates: []DaySnapshot{
		{
			Date: "2024-06-01", DayStart: "08:00", DayEnd: "18:00",
			Slots: []SlotSnapshot{{Number: 1, Occupied: []RawInterval{
				{Start: "nine", End: "10:00"},
				{Start: "11:00", End: "11:00"},
				{Start: "12:00", End: "13:00"},
			}}},
		},
		{Date: "2024-06-02", DayStart: "18:00", DayEnd: "08:00"},
	}}

	idx := Build(spot, dates, snap, nil, time.Time{})

	assert.Equal(t, 2, idx.DroppedIntervals())
	assert.Len(t, idx.Occupied(timerange.MustDate("2024-06-01"), 1), 1)
	_, ok := idx.Window(timerange.MustDate("2024-06-02"))
	assert.False(t, ok)
}

func TestIndex_DayReturnsCopy(t *testing.T) {
	spot := testSpot(t, 1)
	date := timerange.MustDate("2024-06-01")
	snap := Snapshot{Dates: []DaySnapshot{{
		Date: "2024-06-01", DayStart: "08:00", DayEnd: "18:00",
		Slots: []SlotSnapshot{{Number: 1, Occupied: []RawInterval{{Start: "09:00", End: "10:00"}}}},
	}}}
	idx := Build(spot, []timerange.Date{date}, snap, time.UTC, time.Time{})

	day, _ := idx.Day(date)
	day.Slots[1] = nil
	day.Window.DayEnd = timerange.MustClock("09:00")

	assert.Len(t, idx.Occupied(date, 1), 1)
	w, _ := idx.Window(date)
	assert.Equal(t, timerange.MustClock("18:00"), w.DayEnd)
}

func TestService_GetAvailability(t *testing.T) {
	now := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	src := &stubSource{snap: Snapshot{Dates: []DaySnapshot{{Date: "2024-06-01", DayStart: "08:00", DayEnd: "18:00"}}}}
	svc := &Service{
		Spots:    stubDirectory{spots: map[spots.SpotID]spots.Spot{"42": testSpot(t, 2)}},
		Source:   src,
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}
	today := timerange.MustDate("2024-06-01")

	idx, err := svc.GetAvailability(context.Background(), "42", []timerange.Date{today, today})
	require.NoError(t, err)
	assert.Equal(t, spots.SpotID("42"), idx.SpotID())
	assert.Equal(t, now, idx.FetchedAt())
	require.Len(t, src.calls, 1)
	assert.Equal(t, []timerange.Date{today}, src.calls[0])

	_, err = svc.GetAvailability(context.Background(), "404", []timerange.Date{today})
	assert.ErrorIs(t, err, spots.ErrSpotNotFound)

	_, err = svc.GetAvailability(context.Background(), "42", []timerange.Date{timerange.MustDate("2024-05-31")})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.GetAvailability(context.Background(), "42", nil)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	assert.Len(t, src.calls, 1)
}

func TestService_GetAvailability_WrapsSourceError(t *testing.T) {
	boom := errors.New("backend down")
	svc := &Service{
		Spots:  stubDirectory{spots: map[spots.SpotID]spots.Spot{"42": testSpot(t, 1)}},
		Source: &stubSource{err: boom},
		Now:    func() time.Time { return time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC) },
	}
	_, err := svc.GetAvailability(context.Background(), "42", []timerange.Date{timerange.MustDate("2024-06-01")})
	assert.ErrorIs(t, err, boom)
}
