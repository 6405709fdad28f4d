package dto

import (
	"errors"
	"time"

	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/pricing"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/session"
	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/spots"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Display: pricing.Format(value)}
}

type Spot struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Type      string  `json:"type"`
	TypeLabel string  `json:"type_label"`
	Size      string  `json:"size,omitempty"`
	PriceHour string  `json:"price_hour"`
	PriceDay  string  `json:"price_day"`
	SlotCount int     `json:"slot_count"`
	Status    string  `json:"status"`

	// Modes lists the booking modes the spot publishes a price for.
	Modes []string `json:"modes"`
}

func MapSpot(s spots.Spot) Spot {
	return Spot{
		ID:        string(s.ID),
		Title:     s.Title,
		Address:   s.Location.Address,
		Lat:       s.Location.Lat,
		Lon:       s.Location.Lon,
		Type:      string(s.Type),
		TypeLabel: s.Type.Label(),
		Size:      s.Size,
		PriceHour: pricing.FormatRate(s.PriceHour),
		PriceDay:  pricing.FormatRate(s.PriceDay),
		SlotCount: s.SlotCount,
		Status:    string(s.Status),
		Modes:     spotModes(s),
	}
}

func spotModes(s spots.Spot) []string {
	modes := []string{}
	if s.HourlyBookable() {
		modes = append(modes, string(booking.ModeHourly))
	}
	if s.DailyBookable() {
		modes = append(modes, string(booking.ModeDaily))
	}
	return modes
}

type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

type Slot struct {
	Number     int        `json:"number"`
	Occupancy  string     `json:"occupancy"`
	Selectable bool       `json:"selectable"`
	Occupied   []Interval `json:"occupied"`
}

type Quote struct {
	Mode     string   `json:"mode"`
	Minutes  int      `json:"minutes"`
	Duration string   `json:"duration"`
	Rate     string   `json:"rate"`
	Total    MoneyDTO `json:"total"`
}

func MapQuote(q pricing.Quote) Quote {
	rate := pricing.NotAvailable
	if q.Priced() {
		rate = pricing.Format(q.Rate)
	}
	return Quote{
		Mode:     string(q.Mode),
		Minutes:  q.Minutes,
		Duration: pricing.FormatDuration(q.Minutes),
		Rate:     rate,
		Total:    MapMoney(q.Total()),
	}
}

type Rejection struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type Reservation struct {
	ID             string    `json:"id"`
	SpotID         string    `json:"spot_id"`
	SpotTitle      string    `json:"spot_title,omitempty"`
	SlotNumber     int       `json:"slot_number"`
	Start          time.Time `json:"start_time"`
	End            time.Time `json:"end_time"`
	TotalPrice     MoneyDTO  `json:"total_price"`
	Status         string    `json:"status"`
	StatusLabel    string    `json:"status_label"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

func MapReservation(r reservations.Reservation) Reservation {
	out := Reservation{
		ID:          string(r.ID),
		SpotID:      string(r.SpotID),
		SpotTitle:   r.SpotTitle,
		SlotNumber:  r.SlotNumber,
		Start:       r.Start,
		End:         r.End,
		TotalPrice:  MapMoney(r.TotalPrice),
		Status:      string(r.Status),
		StatusLabel: r.Status.Label(),
	}
	if r.ConversationID != nil {
		out.ConversationID = *r.ConversationID
	}
	return out
}

func MapReservations(items []reservations.Reservation) []Reservation {
	out := make([]Reservation, 0, len(items))
	for _, r := range items {
		out = append(out, MapReservation(r))
	}
	return out
}

type Session struct {
	ID            string       `json:"id"`
	State         string       `json:"state"`
	Spot          Spot         `json:"spot"`
	Date          string       `json:"date,omitempty"`
	Window        *Window      `json:"window,omitempty"`
	Slots         []Slot       `json:"slots"`
	SlotNumber    int          `json:"slot_number,omitempty"`
	Mode          string       `json:"mode,omitempty"`
	StartTime     string       `json:"start_time,omitempty"`
	EndTime       string       `json:"end_time,omitempty"`
	Quote         Quote        `json:"quote"`
	FetchPending  bool         `json:"fetch_pending"`
	FetchError    string       `json:"fetch_error,omitempty"`
	Submitting    bool         `json:"submitting"`
	SubmitError   string       `json:"submit_error,omitempty"`
	NeedsRefresh  bool         `json:"refresh_required"`
	LastRejection *Rejection   `json:"last_rejection,omitempty"`
	Reservation   *Reservation `json:"reservation,omitempty"`
}

func MapSession(v session.View) Session {
	out := Session{
		ID:           string(v.ID),
		State:        string(v.State),
		Spot:         MapSpot(v.Spot),
		Slots:        []Slot{},
		SlotNumber:   v.SlotNumber,
		Mode:         string(v.Mode),
		StartTime:    v.StartTime,
		EndTime:      v.EndTime,
		Quote:        MapQuote(v.Quote()),
		FetchPending: v.FetchPending,
		Submitting:   v.Submitting,
		NeedsRefresh: v.NeedsRefresh,
	}
	if !v.Date.IsZero() {
		out.Date = v.Date.String()
	}
	if v.Window != nil {
		out.Window = mapWindow(*v.Window)
	}
	for _, sv := range v.Slots {
		out.Slots = append(out.Slots, mapSlot(sv))
	}
	if v.FetchError != nil {
		out.FetchError = v.FetchError.Error()
	}
	if v.SubmitError != nil {
		out.SubmitError = v.SubmitError.Error()
	}
	if v.LastRejection != nil {
		out.LastRejection = MapRejection(v.LastRejection)
	}
	if v.Reservation != nil {
		r := MapReservation(*v.Reservation)
		out.Reservation = &r
	}
	return out
}

func mapSlot(sv availability.SlotView) Slot {
	occ := make([]Interval, 0, len(sv.Occupied))
	for _, o := range sv.Occupied {
		occ = append(occ, Interval{Start: o.Start.String(), End: o.End.String()})
	}
	return Slot{Number: sv.Number, Occupancy: string(sv.Occupancy), Selectable: sv.Selectable, Occupied: occ}
}

// MapRejection renders a validator rejection; other errors are reported with their text.
func MapRejection(err error) *Rejection {
	var rej *booking.Rejection
	if errors.As(err, &rej) {
		return &Rejection{Reason: string(rej.Reason), Message: rej.Message()}
	}
	return &Rejection{Reason: "ERROR", Message: err.Error()}
}

// Transition reports whether a session step took effect. A superseded date selection or
// a click on a full slot returns Applied=false with the unchanged session.
type Transition struct {
	Applied bool    `json:"applied"`
	Session Session `json:"session"`
}

type Confirmation struct {
	SessionID   string      `json:"session_id"`
	Reservation Reservation `json:"reservation"`
	Quote       Quote       `json:"quote"`
}
