package session

import (
	"time"

	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/spots"
)

type SessionOpened struct {
	SessionID ID
	SpotID    spots.SpotID
	At        time.Time
}

func (e SessionOpened) EventName() string     { return "booking.session_opened" }
func (e SessionOpened) AggregateID() string   { return string(e.SessionID) }
func (e SessionOpened) OccurredAt() time.Time { return e.At }

type BookingValidated struct {
	SessionID  ID
	SpotID     spots.SpotID
	SlotNumber int
	Mode       booking.Mode
	Start      time.Time
	End        time.Time
	Total      money.Money
	At         time.Time
}

func (e BookingValidated) EventName() string     { return "booking.validated" }
func (e BookingValidated) AggregateID() string   { return string(e.SessionID) }
func (e BookingValidated) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	SessionID  ID
	SpotID     spots.SpotID
	SlotNumber int
	Reason     booking.Reason
	At         time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.SessionID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingSubmitted struct {
	SessionID     ID
	ReservationID reservations.ReservationID
	SpotID        spots.SpotID
	SlotNumber    int
	Start         time.Time
	End           time.Time
	Status        reservations.Status
	At            time.Time
}

func (e BookingSubmitted) EventName() string     { return "booking.submitted" }
func (e BookingSubmitted) AggregateID() string   { return string(e.SessionID) }
func (e BookingSubmitted) OccurredAt() time.Time { return e.At }

type BookingConflict struct {
	SessionID  ID
	SpotID     spots.SpotID
	SlotNumber int
	Start      time.Time
	End        time.Time
	At         time.Time
}

func (e BookingConflict) EventName() string     { return "booking.conflict" }
func (e BookingConflict) AggregateID() string   { return string(e.SessionID) }
func (e BookingConflict) OccurredAt() time.Time { return e.At }

type SessionClosed struct {
	SessionID ID
	SpotID    spots.SpotID
	Final     State
	At        time.Time
}

func (e SessionClosed) EventName() string     { return "booking.session_closed" }
func (e SessionClosed) AggregateID() string   { return string(e.SessionID) }
func (e SessionClosed) OccurredAt() time.Time { return e.At }
