package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/spots"
)

var (
	// ErrConflict means the Reservation API refused a booking the local validator accepted,
	// usually because another renter took the slot first.
	ErrConflict            = errors.New("reservations: slot was booked concurrently")
	ErrReservationNotFound = errors.New("reservations: not found")
	ErrInvalidAction       = errors.New("reservations: action must be approve or refuse")
)

type ReservationID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRefused   Status = "refused"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalises the wire value. Unknown values are kept verbatim for display.
func ParseStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pendente"
	case StatusConfirmed:
		return "Confirmada"
	case StatusRefused:
		return "Recusada"
	case StatusCancelled:
		return "Cancelada"
	default:
		return string(s)
	}
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionRefuse  Action = "refuse"
)

func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionApprove, ActionRefuse:
		return a, nil
	default:
		return "", ErrInvalidAction
	}
}

type Reservation struct {
	ID             ReservationID
	SpotID         spots.SpotID
	SpotTitle      string
	SlotNumber     int
	Start          time.Time
	End            time.Time
	TotalPrice     money.Money
	Status         Status
	RenterID       string
	ConversationID *string
}

// CreateRequest is the creation payload sent to the Reservation API.
type CreateRequest struct {
	SpotID         spots.SpotID
	SlotNumber     int
	Start          time.Time
	End            time.Time
	IdempotencyKey string
}

func NewCreateRequest(vb booking.ValidatedBooking, idempotencyKey string) CreateRequest {
	return CreateRequest{
		SpotID:         vb.SpotID,
		SlotNumber:     vb.SlotNumber,
		Start:          vb.Start.UTC(),
		End:            vb.End.UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// API is the Reservation API as seen by the engine. It owns every status transition.
type API interface {
	Create(ctx context.Context, req CreateRequest) (Reservation, error)
	Cancel(ctx context.Context, id ReservationID) error
	UpdateStatus(ctx context.Context, id ReservationID, action Action) (Reservation, error)
	ListMine(ctx context.Context) ([]Reservation, error)
	ListForSpot(ctx context.Context, spotID spots.SpotID) ([]Reservation, error)
}
