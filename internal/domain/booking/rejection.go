package booking

import "fmt"

// Reason is the machine-readable cause of a rejected booking candidate.
type Reason string

const (
	ReasonMissingMode           Reason = "MISSING_MODE"
	ReasonUnknownSlot           Reason = "UNKNOWN_SLOT"
	ReasonSpotMismatch          Reason = "SPOT_MISMATCH"
	ReasonNoAvailabilityForDate Reason = "NO_AVAILABILITY_FOR_DATE"
	ReasonMissingTimeFields     Reason = "MISSING_TIME_FIELDS"
	ReasonInvalidTimeFormat     Reason = "INVALID_TIME_FORMAT"
	ReasonEndBeforeStart        Reason = "END_BEFORE_START"
	ReasonOutsideWindow         Reason = "OUTSIDE_WINDOW"
	ReasonStartInPast           Reason = "START_IN_PAST"
	ReasonSlotFullyOccupied     Reason = "SLOT_FULLY_OCCUPIED"
	ReasonTimeOverlap           Reason = "TIME_OVERLAP"
)

// Input reports whether the reason stems from malformed or incomplete user input rather
// than from the state of the spot.
func (r Reason) Input() bool {
	switch r {
	case ReasonMissingMode, ReasonUnknownSlot, ReasonMissingTimeFields, ReasonInvalidTimeFormat:
		return true
	default:
		return false
	}
}

var messages = map[Reason]string{
	ReasonMissingMode:           "choose hourly or daily booking",
	ReasonUnknownSlot:           "slot does not exist for this spot",
	ReasonSpotMismatch:          "availability belongs to another spot",
	ReasonNoAvailabilityForDate: "spot has no availability on this date",
	ReasonMissingTimeFields:     "start and end times are required",
	ReasonInvalidTimeFormat:     "times must be HH:MM",
	ReasonEndBeforeStart:        "end time must be after start time",
	ReasonOutsideWindow:         "requested time is outside the spot's opening hours",
	ReasonStartInPast:           "cannot book a time in the past",
	ReasonSlotFullyOccupied:     "slot is fully occupied on this date",
	ReasonTimeOverlap:           "requested time overlaps an existing reservation",
}

// Rejection is returned by the validator for expected, user-facing failures. It matches
// any other Rejection with the same Reason under errors.Is.
type Rejection struct {
	Reason Reason
	Detail string
}

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) Error() string {
	msg := messages[r.Reason]
	if msg == "" {
		msg = string(r.Reason)
	}
	if r.Detail == "" {
		return "booking: " + msg
	}
	return "booking: " + msg + " (" + r.Detail + ")"
}

// Message is the user-facing text without the package prefix.
func (r *Rejection) Message() string {
	if msg, ok := messages[r.Reason]; ok {
		return msg
	}
	return string(r.Reason)
}

func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

var (
	ErrMissingMode           = &Rejection{Reason: ReasonMissingMode}
	ErrUnknownSlot           = &Rejection{Reason: ReasonUnknownSlot}
	ErrSpotMismatch          = &Rejection{Reason: ReasonSpotMismatch}
	ErrNoAvailabilityForDate = &Rejection{Reason: ReasonNoAvailabilityForDate}
	ErrMissingTimeFields     = &Rejection{Reason: ReasonMissingTimeFields}
	ErrInvalidTimeFormat     = &Rejection{Reason: ReasonInvalidTimeFormat}
	ErrEndBeforeStart        = &Rejection{Reason: ReasonEndBeforeStart}
	ErrOutsideWindow         = &Rejection{Reason: ReasonOutsideWindow}
	ErrStartInPast           = &Rejection{Reason: ReasonStartInPast}
	ErrSlotFullyOccupied     = &Rejection{Reason: ReasonSlotFullyOccupied}
	ErrTimeOverlap           = &Rejection{Reason: ReasonTimeOverlap}
)
