package session

import (
	"errors"
	"sync"
	"time"

	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/pricing"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/shared/events"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

var (
	ErrInvalidTransition  = errors.New("session: invalid state transition")
	ErrSessionNotFound    = errors.New("session: not found")
	ErrRefreshRequired    = errors.New("session: availability must be reloaded before booking again")
	ErrSubmissionInFlight = errors.New("session: a reservation is already being submitted")
)

type ID string

type State string

const (
	StateClosed       State = "CLOSED"
	StateSpotSelected State = "SPOT_SELECTED"
	StateDateSelected State = "DATE_SELECTED"
	StateSlotSelected State = "SLOT_SELECTED"
	StateModeSelected State = "MODE_SELECTED"
	StateConfirmed    State = "CONFIRMED"
	StateCancelled    State = "CANCELLED"
)

// Open reports whether the session still accepts booking transitions.
func (s State) Open() bool {
	switch s {
	case StateSpotSelected, StateDateSelected, StateSlotSelected, StateModeSelected:
		return true
	default:
		return false
	}
}

// Ticket identifies one availability fetch. Only the most recent ticket of a session that
// is still open may apply its result.
type Ticket struct {
	Session ID
	Seq     uint64
	SpotID  spots.SpotID
	Date    timerange.Date
}

// Dates is the date set to request from the Availability Index.
func (t Ticket) Dates() []timerange.Date { return []timerange.Date{t.Date} }

// Submission carries a validated booking to the Reservation API.
type Submission struct {
	Session ID
	Seq     uint64
	Booking booking.ValidatedBooking
	Quote   pricing.Quote
}

// Session is one renter's booking flow for one spot. All methods are safe for concurrent use;
// network calls happen between Begin* and the matching Resolve/Complete call, outside the lock.
type Session struct {
	mu sync.Mutex

	id    ID
	spot  spots.Spot
	state State
	now   func() time.Time

	date      timerange.Date
	slot      int
	mode      booking.Mode
	startTime string
	endTime   string
	index     *availability.Index

	fetchSeq      uint64
	fetchPending  bool
	fetchErr      error
	submitSeq     uint64
	submitting    bool
	needsRefresh  bool
	lastRejection error
	lastSubmitErr error
	reservation   *reservations.Reservation

	recorder events.EventRecorder
}

// Open starts a session for spot in SpotSelected.
func Open(id ID, spot spots.Spot, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{id: id, spot: spot, state: StateSpotSelected, now: now}
	s.recorder.Record(SessionOpened{SessionID: id, SpotID: spot.ID, At: now().UTC()})
	return s
}

func (s *Session) ID() ID { return s.id }

func (s *Session) Spot() spots.Spot { return s.spot }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginDateSelection issues a fetch ticket for date. Any earlier ticket is superseded.
func (s *Session) BeginDateSelection(date timerange.Date) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Open() {
		return Ticket{}, ErrInvalidTransition
	}
	s.fetchSeq++
	s.fetchPending = true
	return Ticket{Session: s.id, Seq: s.fetchSeq, SpotID: s.spot.ID, Date: date}, nil
}

// ResolveAvailability applies the result of a fetch. It returns false when the ticket was
// superseded or the session is no longer open; the result is dropped in that case. A failed
// fetch leaves the state untouched and is reported through View.
func (s *Session) ResolveAvailability(t Ticket, idx *availability.Index, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Session != s.id || t.Seq != s.fetchSeq || !s.state.Open() {
		return false
	}
	s.fetchPending = false
	if err != nil {
		s.fetchErr = err
		return true
	}
	s.fetchErr = nil
	s.index = idx
	s.date = t.Date
	s.slot = 0
	s.mode = booking.ModeNone
	s.startTime, s.endTime = "", ""
	s.needsRefresh = false
	s.lastRejection = nil
	s.lastSubmitErr = nil
	s.state = StateDateSelected
	return true
}

// SelectSlot picks slot n on the selected date. Full or unknown slots are ignored and
// reported with false.
func (s *Session) SelectSlot(n int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateDateSelected, StateSlotSelected, StateModeSelected:
	default:
		return false, ErrInvalidTransition
	}
	if s.submitting {
		return false, ErrSubmissionInFlight
	}
	if !s.selectableLocked(n) {
		return false, nil
	}
	if s.slot != n {
		s.mode = booking.ModeNone
		s.startTime, s.endTime = "", ""
		s.state = StateSlotSelected
	} else if s.state == StateDateSelected {
		s.state = StateSlotSelected
	}
	s.slot = n
	s.lastRejection = nil
	return true, nil
}

// SelectMode picks hourly or daily booking for the selected slot.
func (s *Session) SelectMode(mode booking.Mode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSlotSelected && s.state != StateModeSelected {
		return false, ErrInvalidTransition
	}
	if s.submitting {
		return false, ErrSubmissionInFlight
	}
	if !mode.Valid() {
		return false, booking.ErrMissingMode
	}
	if !s.selectableLocked(s.slot) {
		return false, nil
	}
	s.mode = mode
	s.lastRejection = nil
	s.state = StateModeSelected
	return true, nil
}

// SetTimes records the hourly start and end typed by the user. They are checked only on
// confirmation.
func (s *Session) SetTimes(start, end string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSlotSelected && s.state != StateModeSelected {
		return ErrInvalidTransition
	}
	s.startTime, s.endTime = start, end
	return nil
}

// BeginConfirmation validates the current selection against the latest snapshot. A
// rejection is returned unchanged and keeps the session in ModeSelected.
func (s *Session) BeginConfirmation(v booking.Validator) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateModeSelected || s.index == nil {
		return Submission{}, ErrInvalidTransition
	}
	if s.needsRefresh {
		return Submission{}, ErrRefreshRequired
	}
	if s.submitting {
		return Submission{}, ErrSubmissionInFlight
	}
	at := s.now().UTC()
	vb, err := v.Validate(s.index, s.candidateLocked())
	if err != nil {
		s.lastRejection = err
		var rej *booking.Rejection
		if errors.As(err, &rej) {
			s.recorder.Record(BookingRejected{SessionID: s.id, SpotID: s.spot.ID, SlotNumber: s.slot, Reason: rej.Reason, At: at})
		}
		return Submission{}, err
	}
	s.lastRejection = nil
	s.lastSubmitErr = nil
	quote := pricing.Calculate(pricing.RatesFor(s.spot), vb)
	s.submitSeq++
	s.submitting = true
	s.recorder.Record(BookingValidated{
		SessionID: s.id, SpotID: vb.SpotID, SlotNumber: vb.SlotNumber, Mode: vb.Mode,
		Start: vb.Start, End: vb.End, Total: quote.Total(), At: at,
	})
	return Submission{Session: s.id, Seq: s.submitSeq, Booking: vb, Quote: quote}, nil
}

// CompleteConfirmation applies the Reservation API answer. A Conflict keeps the session in
// ModeSelected and demands a fresh availability snapshot before another attempt. It returns
// false when the session was closed or cancelled meanwhile.
func (s *Session) CompleteConfirmation(sub Submission, res reservations.Reservation, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.Session != s.id || sub.Seq != s.submitSeq || !s.submitting {
		return false
	}
	s.submitting = false
	if !s.state.Open() {
		return false
	}
	at := s.now().UTC()
	if err != nil {
		s.lastSubmitErr = err
		if errors.Is(err, reservations.ErrConflict) {
			s.needsRefresh = true
			s.recorder.Record(BookingConflict{
				SessionID: s.id, SpotID: sub.Booking.SpotID, SlotNumber: sub.Booking.SlotNumber,
				Start: sub.Booking.Start, End: sub.Booking.End, At: at,
			})
		}
		return true
	}
	r := res
	s.reservation = &r
	s.state = StateConfirmed
	s.recorder.Record(BookingSubmitted{
		SessionID: s.id, ReservationID: res.ID, SpotID: sub.Booking.SpotID, SlotNumber: sub.Booking.SlotNumber,
		Start: sub.Booking.Start, End: sub.Booking.End, Status: res.Status, At: at,
	})
	return true
}

// Cancel abandons the flow. In-flight fetches and submissions are dropped when they resolve.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Open() {
		return ErrInvalidTransition
	}
	s.state = StateCancelled
	s.fetchSeq++
	s.fetchPending = false
	return nil
}

// Close ends the session from any state. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	final := s.state
	s.state = StateClosed
	s.fetchSeq++
	s.fetchPending = false
	s.submitting = false
	s.index = nil
	s.recorder.Record(SessionClosed{SessionID: s.id, SpotID: s.spot.ID, Final: final, At: s.now().UTC()})
}

func (s *Session) DrainEvents() []events.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.DrainEvents()
}

func (s *Session) selectableLocked(n int) bool {
	if s.index == nil {
		return false
	}
	class, ok := s.index.Classification(s.date, n)
	return ok && class.Selectable()
}

func (s *Session) candidateLocked() booking.Candidate {
	return booking.Candidate{
		SpotID:     s.spot.ID,
		SlotNumber: s.slot,
		Date:       s.date,
		Mode:       s.mode,
		StartTime:  s.startTime,
		EndTime:    s.endTime,
	}
}

// View is a consistent read of the session for rendering.
type View struct {
	ID            ID
	Spot          spots.Spot
	State         State
	Date          timerange.Date
	Window        *availability.Window
	Slots         []availability.SlotView
	SlotNumber    int
	Mode          booking.Mode
	StartTime     string
	EndTime       string
	FetchPending  bool
	FetchError    error
	Submitting    bool
	SubmitError   error
	NeedsRefresh  bool
	LastRejection error
	Reservation   *reservations.Reservation
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:            s.id,
		Spot:          s.spot,
		State:         s.state,
		Date:          s.date,
		SlotNumber:    s.slot,
		Mode:          s.mode,
		StartTime:     s.startTime,
		EndTime:       s.endTime,
		FetchPending:  s.fetchPending,
		FetchError:    s.fetchErr,
		Submitting:    s.submitting,
		SubmitError:   s.lastSubmitErr,
		NeedsRefresh:  s.needsRefresh,
		LastRejection: s.lastRejection,
	}
	if s.index != nil {
		if w, ok := s.index.Window(s.date); ok {
			v.Window = &w
		}
		v.Slots = s.index.Slots(s.date)
	}
	if s.reservation != nil {
		r := *s.reservation
		v.Reservation = &r
	}
	return v
}

// Quote previews the price of the current selection without validating it.
func (v View) Quote() pricing.Quote {
	rates := pricing.RatesFor(v.Spot)
	switch v.Mode {
	case booking.ModeDaily:
		if v.Window == nil {
			return pricing.Quote{Mode: booking.ModeDaily, Rate: rates.Day}
		}
		return pricing.Calculate(rates, booking.ValidatedBooking{
			Mode:  booking.ModeDaily,
			Start: v.Window.DayStart.On(v.Date, time.UTC),
			End:   v.Window.DayEnd.On(v.Date, time.UTC),
		})
	case booking.ModeHourly:
		start, err := timerange.ParseClock(v.StartTime)
		if err != nil {
			return pricing.Quote{Mode: booking.ModeHourly, Rate: rates.Hour}
		}
		end, err := timerange.ParseClock(v.EndTime)
		if err != nil {
			return pricing.Quote{Mode: booking.ModeHourly, Rate: rates.Hour}
		}
		return pricing.Preview(rates, v.Date, start, end)
	default:
		return pricing.Quote{Rate: rates.Hour}
	}
}
