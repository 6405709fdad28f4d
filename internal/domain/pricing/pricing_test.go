package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/shared/timerange"
)

func validated(mode booking.Mode, start, end string) booking.ValidatedBooking {
	date := timerange.MustDate("2024-06-01")
	s, e := timerange.MustClock(start), timerange.MustClock(end)
	return booking.ValidatedBooking{
		SpotID: "1", SlotNumber: 1, Mode: mode, Date: date,
		StartClock: s, EndClock: e,
		Start: s.On(date, time.UTC), End: e.On(date, time.UTC),
	}
}

func TestCalculate_DailyIsFlat(t *testing.T) {
	rates := Rates{Hour: money.Must(1000, "BRL"), Day: money.Must(5000, "BRL")}

	short := Calculate(rates, validated(booking.ModeDaily, "10:00", "12:00"))
	long := Calculate(rates, validated(booking.ModeDaily, "00:00", "24:00"))

	assert.Equal(t, money.Must(5000, "BRL"), short.Total())
	assert.Equal(t, money.Must(5000, "BRL"), long.Total())
	assert.Equal(t, "R$ 50,00", long.String())
}

func TestCalculate_HourlyScalesLinearly(t *testing.T) {
	rates := Rates{Hour: money.Must(1000, "BRL")}

	assert.Equal(t, int64(1500), Calculate(rates, validated(booking.ModeHourly, "10:00", "11:30")).Total().Amount)
	assert.Equal(t, int64(1000), Calculate(rates, validated(booking.ModeHourly, "10:00", "11:00")).Total().Amount)
	assert.Equal(t, int64(3000), Calculate(rates, validated(booking.ModeHourly, "10:00", "13:00")).Total().Amount)
}

func TestCalculate_RoundsOnlyOnRender(t *testing.T) {
	// 7 minutes at R$ 0,10/h is 1.1666 centavos; three of them sum to 3.5 and round to 4.
	rates := Rates{Hour: money.Must(10, "BRL")}
	q := Calculate(rates, validated(booking.ModeHourly, "10:00", "10:07"))

	assert.Equal(t, int64(1), q.Total().Amount)
	assert.Equal(t, int64(4), Sum(q, q, q).Amount)
}

func TestCalculate_ZeroRatesRenderNotAvailable(t *testing.T) {
	q := Calculate(Rates{}, validated(booking.ModeDaily, "08:00", "18:00"))
	assert.True(t, q.Total().IsZero())
	assert.False(t, q.Priced())
	assert.Equal(t, NotAvailable, q.String())
	assert.Equal(t, NotAvailable, FormatRate(money.Money{}))
	assert.Equal(t, "R$ 12,50", FormatRate(money.Must(1250, "BRL")))
}

func TestPreview_WrapsOvernight(t *testing.T) {
	rates := Rates{Hour: money.Must(600, "BRL")}
	q := Preview(rates, timerange.MustDate("2024-06-01"), timerange.MustClock("22:00"), timerange.MustClock("01:00"))

	assert.Equal(t, 180, q.Minutes)
	assert.Equal(t, int64(1800), q.Total().Amount)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m", FormatDuration(0))
	assert.Equal(t, "45m", FormatDuration(45))
	assert.Equal(t, "2h", FormatDuration(120))
	assert.Equal(t, "1h 30m", FormatDuration(90))
}
