package pricing

import (
	"fmt"
	"strings"
	"time"

	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

// NotAvailable is rendered instead of a price when the spot publishes no usable rate.
const NotAvailable = "N/A"

type Rates struct {
	Hour money.Money
	Day  money.Money
}

func RatesFor(s spots.Spot) Rates {
	return Rates{Hour: s.PriceHour, Day: s.PriceDay}
}

func (r Rates) currency() string {
	switch {
	case r.Hour.Currency != "":
		return r.Hour.Currency
	case r.Day.Currency != "":
		return r.Day.Currency
	default:
		return money.DefaultCurrency
	}
}

// Quote is a price kept exact until it is rendered. Hourly totals are stored in sixtieths of
// a minor unit so summing several quotes never compounds rounding.
type Quote struct {
	Mode     booking.Mode
	Minutes  int
	Rate     money.Money
	currency string
	sixtieth int64
}

// Total rounds the exact value half up to whole minor units.
func (q Quote) Total() money.Money {
	return money.Money{Amount: roundSixtieths(q.sixtieth), Currency: q.currency}
}

// Priced reports whether the quote came from a positive rate.
func (q Quote) Priced() bool { return q.Rate.Amount > 0 }

func (q Quote) String() string {
	if !q.Priced() {
		return NotAvailable
	}
	return Format(q.Total())
}

// Calculate prices a validated booking. Zero or negative rates yield a zero quote.
func Calculate(rates Rates, vb booking.ValidatedBooking) Quote {
	switch vb.Mode {
	case booking.ModeDaily:
		return daily(rates, vb.Minutes())
	case booking.ModeHourly:
		return hourly(rates, vb.Minutes())
	default:
		return Quote{Mode: vb.Mode, currency: rates.currency()}
	}
}

// Preview prices an hourly selection while it is being typed. Unlike validation it lets an
// end at or before the start roll over to the next day.
func Preview(rates Rates, date timerange.Date, start, end timerange.Clock) Quote {
	from := start.On(date, time.UTC)
	to := end.On(date, time.UTC)
	return hourly(rates, timerange.DurationMinutes(from, to))
}

func hourly(rates Rates, minutes int) Quote {
	q := Quote{Mode: booking.ModeHourly, Minutes: minutes, Rate: rates.Hour, currency: rates.currency()}
	if rates.Hour.Amount > 0 && minutes > 0 {
		q.sixtieth = int64(minutes) * rates.Hour.Amount
	}
	return q
}

func daily(rates Rates, minutes int) Quote {
	q := Quote{Mode: booking.ModeDaily, Minutes: minutes, Rate: rates.Day, currency: rates.currency()}
	if rates.Day.Amount > 0 {
		q.sixtieth = rates.Day.Amount * 60
	}
	return q
}

// Sum adds quotes exactly and rounds once.
func Sum(quotes ...Quote) money.Money {
	var total int64
	currency := money.DefaultCurrency
	for i, q := range quotes {
		if i == 0 && q.currency != "" {
			currency = q.currency
		}
		total += q.sixtieth
	}
	return money.Money{Amount: roundSixtieths(total), Currency: currency}
}

func roundSixtieths(n int64) int64 {
	if n < 0 {
		return -((-n + 30) / 60)
	}
	return (n + 30) / 60
}

// Format renders an amount the way the listing UI does: "R$ 15,00" for reais.
func Format(m money.Money) string {
	text := strings.Replace(m.Decimal(), ".", ",", 1)
	if m.Currency == "" || m.Currency == "BRL" {
		return "R$ " + text
	}
	return text + " " + m.Currency
}

// FormatRate renders a published rate, or N/A when the spot has none.
func FormatRate(m money.Money) string {
	if m.Amount <= 0 {
		return NotAvailable
	}
	return Format(m)
}

// FormatDuration renders minutes as "1h 30m", "2h" or "45m".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
