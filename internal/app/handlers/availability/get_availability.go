package availability

import (
	"context"
	"errors"
	"fmt"

	"parkshare/internal/app/dto"
	"parkshare/internal/app/queries"
	domainavailability "parkshare/internal/domain/availability"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

const getAvailabilityKey = "availability.get"

// ErrTooManyDates caps a single request so one call cannot fan out into a month of data.
var ErrTooManyDates = errors.New("availability: too many dates requested")

const MaxDates = 31

type GetAvailabilityQuery struct {
	SpotID string
	Dates  []string
}

func (q GetAvailabilityQuery) Key() string { return getAvailabilityKey }

type Service interface {
	GetAvailability(ctx context.Context, spotID spots.SpotID, dates []timerange.Date) (*domainavailability.Index, error)
}

type GetAvailabilityHandler struct {
	Service Service
}

func (h *GetAvailabilityHandler) Handle(ctx context.Context, q GetAvailabilityQuery) (dto.Availability, error) {
	if len(q.Dates) > MaxDates {
		return dto.Availability{}, fmt.Errorf("%w: %d > %d", ErrTooManyDates, len(q.Dates), MaxDates)
	}
	dates := make([]timerange.Date, 0, len(q.Dates))
	for _, raw := range q.Dates {
		d, err := timerange.ParseDate(raw)
		if err != nil {
			return dto.Availability{}, err
		}
		dates = append(dates, d)
	}
	idx, err := h.Service.GetAvailability(ctx, spots.SpotID(q.SpotID), dates)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.MapAvailability(idx), nil
}

var _ queries.Handler[GetAvailabilityQuery, dto.Availability] = (*GetAvailabilityHandler)(nil)

func Register(bus *queries.InMemoryBus, svc Service) {
	queries.Register[GetAvailabilityQuery, dto.Availability](bus, &GetAvailabilityHandler{Service: svc})
}
