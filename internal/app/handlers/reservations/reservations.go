package reservations

import (
	"context"

	"parkshare/internal/app/commands"
	"parkshare/internal/app/dto"
	"parkshare/internal/app/queries"
	domainreservations "parkshare/internal/domain/reservations"
	"parkshare/internal/domain/spots"
)

type ListMineQuery struct{}

func (ListMineQuery) Key() string { return "reservations.mine" }

type ListForSpotQuery struct {
	SpotID string
}

func (ListForSpotQuery) Key() string { return "reservations.for_spot" }

type CancelCommand struct {
	ReservationID string
}

func (CancelCommand) Key() string { return "reservations.cancel" }

// UpdateStatusCommand is the owner's approve or refuse decision on a pending reservation.
type UpdateStatusCommand struct {
	ReservationID string
	Action        string
}

func (UpdateStatusCommand) Key() string { return "reservations.update_status" }

type Handlers struct {
	API domainreservations.API
}

func (h Handlers) ListMine(ctx context.Context, _ ListMineQuery) ([]dto.Reservation, error) {
	items, err := h.API.ListMine(ctx)
	if err != nil {
		return nil, err
	}
	return dto.MapReservations(items), nil
}

func (h Handlers) ListForSpot(ctx context.Context, q ListForSpotQuery) ([]dto.Reservation, error) {
	items, err := h.API.ListForSpot(ctx, spots.SpotID(q.SpotID))
	if err != nil {
		return nil, err
	}
	return dto.MapReservations(items), nil
}

func (h Handlers) Cancel(ctx context.Context, cmd CancelCommand) (struct{}, error) {
	if cmd.ReservationID == "" {
		return struct{}{}, domainreservations.ErrReservationNotFound
	}
	return struct{}{}, h.API.Cancel(ctx, domainreservations.ReservationID(cmd.ReservationID))
}

func (h Handlers) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (dto.Reservation, error) {
	action, err := domainreservations.ParseAction(cmd.Action)
	if err != nil {
		return dto.Reservation{}, err
	}
	res, err := h.API.UpdateStatus(ctx, domainreservations.ReservationID(cmd.ReservationID), action)
	if err != nil {
		return dto.Reservation{}, err
	}
	return dto.MapReservation(res), nil
}

func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, api domainreservations.API) {
	h := Handlers{API: api}
	queries.Register[ListMineQuery, []dto.Reservation](qs, queries.HandlerFunc[ListMineQuery, []dto.Reservation](h.ListMine))
	queries.Register[ListForSpotQuery, []dto.Reservation](qs, queries.HandlerFunc[ListForSpotQuery, []dto.Reservation](h.ListForSpot))
	commands.Register[CancelCommand, struct{}](cmds, commands.HandlerFunc[CancelCommand, struct{}](h.Cancel))
	commands.Register[UpdateStatusCommand, dto.Reservation](cmds, commands.HandlerFunc[UpdateStatusCommand, dto.Reservation](h.UpdateStatus))
}
