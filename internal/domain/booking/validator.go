package booking

import (
	"strings"
	"time"

	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

type Mode string

const (
	ModeNone   Mode = ""
	ModeHourly Mode = "hourly"
	ModeDaily  Mode = "daily"
)

// ParseMode accepts the facade values and the labels used by the listing UI.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hourly", "hora", "por_hora":
		return ModeHourly
	case "daily", "dia", "diaria", "diária":
		return ModeDaily
	default:
		return ModeNone
	}
}

func (m Mode) Valid() bool { return m == ModeHourly || m == ModeDaily }

// Candidate is a booking the user is about to submit. Times are clock strings and only
// matter for hourly bookings.
type Candidate struct {
	SpotID     spots.SpotID
	SlotNumber int
	Date       timerange.Date
	Mode       Mode
	StartTime  string
	EndTime    string
}

// ValidatedBooking is a candidate that passed every local check, with absolute UTC times
// ready for the Reservation API.
type ValidatedBooking struct {
	SpotID     spots.SpotID
	SlotNumber int
	Mode       Mode
	Date       timerange.Date
	StartClock timerange.Clock
	EndClock   timerange.Clock
	Start      time.Time
	End        time.Time
}

func (vb ValidatedBooking) Minutes() int {
	return timerange.DurationMinutes(vb.Start, vb.End)
}

// Validator is an optimistic pre-check of a candidate against an availability snapshot.
// The Reservation API repeats the checks and has the final word.
type Validator struct {
	Now func() time.Time
}

func NewValidator(now func() time.Time) Validator {
	return Validator{Now: now}
}

func (v Validator) Validate(idx *availability.Index, c Candidate) (ValidatedBooking, error) {
	if !c.Mode.Valid() {
		return ValidatedBooking{}, reject(ReasonMissingMode, "mode %q", c.Mode)
	}
	if idx.SpotID() != c.SpotID {
		return ValidatedBooking{}, reject(ReasonSpotMismatch, "index %s, candidate %s", idx.SpotID(), c.SpotID)
	}
	if !idx.HasSlot(c.SlotNumber) {
		return ValidatedBooking{}, reject(ReasonUnknownSlot, "slot %d of %d", c.SlotNumber, idx.SlotCount())
	}
	window, ok := idx.Window(c.Date)
	if !ok {
		return ValidatedBooking{}, reject(ReasonNoAvailabilityForDate, "%s", c.Date)
	}

	var start, end timerange.Clock
	switch c.Mode {
	case ModeHourly:
		var err error
		if start, end, err = hourlyTimes(window, c.StartTime, c.EndTime); err != nil {
			return ValidatedBooking{}, err
		}
	case ModeDaily:
		start, end = window.DayStart, window.DayEnd
	}

	loc := idx.Location()
	vb := ValidatedBooking{
		SpotID:     c.SpotID,
		SlotNumber: c.SlotNumber,
		Mode:       c.Mode,
		Date:       c.Date,
		StartClock: start,
		EndClock:   end,
		Start:      start.On(c.Date, loc).UTC(),
		End:        end.On(c.Date, loc).UTC(),
	}
	if v.Now != nil {
		if now := v.Now(); vb.Start.Before(now) {
			return ValidatedBooking{}, reject(ReasonStartInPast, "%s %s", c.Date, start)
		}
	}

	occupied := idx.Occupied(c.Date, c.SlotNumber)
	if availability.Classify(window, occupied) == availability.Full {
		return ValidatedBooking{}, reject(ReasonSlotFullyOccupied, "slot %d on %s", c.SlotNumber, c.Date)
	}
	for _, o := range occupied {
		iv := o.Interval(loc)
		if timerange.Overlaps(vb.Start, vb.End, iv.Start, iv.End) {
			return ValidatedBooking{}, reject(ReasonTimeOverlap, "%s-%s taken", o.Start, o.End)
		}
	}
	return vb, nil
}

func hourlyTimes(w availability.Window, rawStart, rawEnd string) (timerange.Clock, timerange.Clock, error) {
	if strings.TrimSpace(rawStart) == "" || strings.TrimSpace(rawEnd) == "" {
		return 0, 0, reject(ReasonMissingTimeFields, "")
	}
	start, err := timerange.ParseClock(rawStart)
	if err != nil {
		return 0, 0, reject(ReasonInvalidTimeFormat, "start %q", rawStart)
	}
	end, err := timerange.ParseClock(rawEnd)
	if err != nil {
		return 0, 0, reject(ReasonInvalidTimeFormat, "end %q", rawEnd)
	}
	if end <= start {
		return 0, 0, reject(ReasonEndBeforeStart, "%s-%s", start, end)
	}
	if start < w.DayStart || end > w.DayEnd {
		return 0, 0, reject(ReasonOutsideWindow, "window %s-%s", w.DayStart, w.DayEnd)
	}
	return start, end, nil
}
