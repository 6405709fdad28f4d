package sessions

import (
	"context"
	"fmt"

	"parkshare/internal/app/commands"
	"parkshare/internal/app/dto"
	"parkshare/internal/app/middleware"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/session"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

type OpenSessionCommand struct {
	SpotID string
}

func (OpenSessionCommand) Key() string { return "session.open" }

type OpenSessionHandler struct{ *Deps }

func (h OpenSessionHandler) Handle(ctx context.Context, cmd OpenSessionCommand) (dto.Session, error) {
	spot, err := h.Spots.Spot(ctx, spots.SpotID(cmd.SpotID))
	if err != nil {
		return dto.Session{}, err
	}
	if !spot.Active() {
		return dto.Session{}, fmt.Errorf("%w: %s", ErrSpotDisabled, spot.ID)
	}
	s := session.Open(session.ID(h.newID()), spot, h.now)
	if err := h.save(ctx, s); err != nil {
		return dto.Session{}, err
	}
	h.flushEvents(ctx, s)
	return dto.MapSession(s.View()), nil
}

type SelectDateCommand struct {
	SessionID string
	Date      string
}

func (SelectDateCommand) Key() string { return "session.select_date" }

// SelectDateHandler fetches availability for the chosen date outside the session lock. A
// response that arrives after a newer selection is discarded and Applied is false.
type SelectDateHandler struct{ *Deps }

func (h SelectDateHandler) Handle(ctx context.Context, cmd SelectDateCommand) (dto.Transition, error) {
	date, err := timerange.ParseDate(cmd.Date)
	if err != nil {
		return dto.Transition{}, err
	}
	s, err := h.load(ctx, cmd.SessionID)
	if err != nil {
		return dto.Transition{}, err
	}
	ticket, err := s.BeginDateSelection(date)
	if err != nil {
		return dto.Transition{}, err
	}
	idx, fetchErr := h.Availability.GetAvailability(ctx, ticket.SpotID, ticket.Dates())
	applied := s.ResolveAvailability(ticket, idx, fetchErr)
	switch {
	case !applied:
		h.observeFetch(FetchSuperseded)
		h.logger().DebugContext(ctx, "availability result dropped", "session_id", s.ID(), "date", date, "seq", ticket.Seq)
		return dto.Transition{Applied: false, Session: dto.MapSession(s.View())}, nil
	case fetchErr != nil:
		h.observeFetch(FetchFailed)
		return dto.Transition{}, fetchErr
	}
	h.observeFetch(FetchApplied)
	if n := idx.DroppedIntervals(); n > 0 {
		h.logger().WarnContext(ctx, "malformed occupied intervals dropped", "spot_id", ticket.SpotID, "date", date, "count", n)
	}
	if err := h.save(ctx, s); err != nil {
		return dto.Transition{}, err
	}
	return dto.Transition{Applied: true, Session: dto.MapSession(s.View())}, nil
}

type SelectSlotCommand struct {
	SessionID  string
	SlotNumber int
}

func (SelectSlotCommand) Key() string { return "session.select_slot" }

type SelectSlotHandler struct{ *Deps }

func (h SelectSlotHandler) Handle(ctx context.Context, cmd SelectSlotCommand) (dto.Transition, error) {
	s, err := h.load(ctx, cmd.SessionID)
	if err != nil {
		return dto.Transition{}, err
	}
	applied, err := s.SelectSlot(cmd.SlotNumber)
	if err != nil {
		return dto.Transition{}, err
	}
	return dto.Transition{Applied: applied, Session: dto.MapSession(s.View())}, h.save(ctx, s)
}

type SelectModeCommand struct {
	SessionID string
	Mode      string
}

func (SelectModeCommand) Key() string { return "session.select_mode" }

type SelectModeHandler struct{ *Deps }

func (h SelectModeHandler) Handle(ctx context.Context, cmd SelectModeCommand) (dto.Transition, error) {
	s, err := h.load(ctx, cmd.SessionID)
	if err != nil {
		return dto.Transition{}, err
	}
	applied, err := s.SelectMode(booking.ParseMode(cmd.Mode))
	if err != nil {
		return dto.Transition{}, err
	}
	return dto.Transition{Applied: applied, Session: dto.MapSession(s.View())}, h.save(ctx, s)
}

type SetTimesCommand struct {
	SessionID string
	StartTime string
	EndTime   string
}

func (SetTimesCommand) Key() string { return "session.set_times" }

type SetTimesHandler struct{ *Deps }

func (h SetTimesHandler) Handle(ctx context.Context, cmd SetTimesCommand) (dto.Session, error) {
	s, err := h.load(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	if err := s.SetTimes(cmd.StartTime, cmd.EndTime); err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s.View()), h.save(ctx, s)
}

type ConfirmCommand struct {
	SessionID       string
	IdempotencyKeyV string
}

func (ConfirmCommand) Key() string { return "session.confirm" }

// IdempotencyKey scopes the client key to the session so two sessions sending the same key
// never share a stored confirmation.
func (c ConfirmCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return c.SessionID + ":" + c.IdempotencyKeyV
}

func (ConfirmCommand) ResultPrototype() any { return &dto.Confirmation{} }

// ConfirmHandler validates the selection and submits it once to the Reservation API. The
// call is never retried here; the renderer repeats it with the same idempotency key.
type ConfirmHandler struct{ *Deps }

func (h ConfirmHandler) Handle(ctx context.Context, cmd ConfirmCommand) (*dto.Confirmation, error) {
	s, err := h.load(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	sub, err := s.BeginConfirmation(h.Validator)
	h.flushEvents(ctx, s)
	if err != nil {
		return nil, err
	}
	key := cmd.IdempotencyKeyV
	if key == "" {
		key = h.newID()
	}
	res, err := h.Reservations.Create(ctx, reservations.NewCreateRequest(sub.Booking, key))
	applied := s.CompleteConfirmation(sub, res, err)
	h.flushEvents(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("sessions: submit reservation: %w", err)
	}
	if res.TotalPrice.Amount == 0 {
		res.TotalPrice = sub.Quote.Total()
	}
	if !applied {
		h.logger().WarnContext(ctx, "reservation created after session ended", "session_id", s.ID(), "reservation_id", res.ID)
	} else if err := h.save(ctx, s); err != nil {
		return nil, err
	}
	return &dto.Confirmation{
		SessionID:   string(s.ID()),
		Reservation: dto.MapReservation(res),
		Quote:       dto.MapQuote(sub.Quote),
	}, nil
}

type CancelSessionCommand struct {
	SessionID string
}

func (CancelSessionCommand) Key() string { return "session.cancel" }

type CancelSessionHandler struct{ *Deps }

func (h CancelSessionHandler) Handle(ctx context.Context, cmd CancelSessionCommand) (dto.Session, error) {
	s, err := h.load(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	if err := s.Cancel(); err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s.View()), h.save(ctx, s)
}

type CloseSessionCommand struct {
	SessionID string
}

func (CloseSessionCommand) Key() string { return "session.close" }

// CloseSessionHandler ends the session and forgets it. In-flight requests for it finish
// but their results are dropped.
type CloseSessionHandler struct{ *Deps }

func (h CloseSessionHandler) Handle(ctx context.Context, cmd CloseSessionCommand) (dto.Session, error) {
	s, err := h.load(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	s.Close()
	h.flushEvents(ctx, s)
	if err := h.Sessions.Delete(ctx, s.ID()); err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s.View()), nil
}

var _ commands.Handler[OpenSessionCommand, dto.Session] = OpenSessionHandler{}
var _ commands.Handler[SelectDateCommand, dto.Transition] = SelectDateHandler{}
var _ commands.Handler[SelectSlotCommand, dto.Transition] = SelectSlotHandler{}
var _ commands.Handler[SelectModeCommand, dto.Transition] = SelectModeHandler{}
var _ commands.Handler[SetTimesCommand, dto.Session] = SetTimesHandler{}
var _ commands.Handler[ConfirmCommand, *dto.Confirmation] = ConfirmHandler{}
var _ commands.Handler[CancelSessionCommand, dto.Session] = CancelSessionHandler{}
var _ commands.Handler[CloseSessionCommand, dto.Session] = CloseSessionHandler{}
var _ middleware.IdempotentCommand = ConfirmCommand{}
