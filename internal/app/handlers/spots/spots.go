package spots

import (
	"context"
	"sort"

	"parkshare/internal/app/dto"
	"parkshare/internal/app/queries"
	domainspots "parkshare/internal/domain/spots"
)

// ListSpotsQuery lists spots open for reservations, ordered by id.
type ListSpotsQuery struct {
	IncludeDisabled bool
}

func (ListSpotsQuery) Key() string { return "spots.list" }

type GetSpotQuery struct {
	SpotID string
}

func (GetSpotQuery) Key() string { return "spots.get" }

type ListSpotsHandler struct {
	Directory domainspots.Directory
}

func (h ListSpotsHandler) Handle(ctx context.Context, q ListSpotsQuery) ([]dto.Spot, error) {
	all, err := h.Directory.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Spot, 0, len(all))
	for _, s := range all {
		if !q.IncludeDisabled && !s.Active() {
			continue
		}
		out = append(out, dto.MapSpot(s))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type GetSpotHandler struct {
	Directory domainspots.Directory
}

func (h GetSpotHandler) Handle(ctx context.Context, q GetSpotQuery) (dto.Spot, error) {
	s, err := h.Directory.Spot(ctx, domainspots.SpotID(q.SpotID))
	if err != nil {
		return dto.Spot{}, err
	}
	return dto.MapSpot(s), nil
}

func Register(bus *queries.InMemoryBus, dir domainspots.Directory) {
	queries.Register[ListSpotsQuery, []dto.Spot](bus, ListSpotsHandler{Directory: dir})
	queries.Register[GetSpotQuery, dto.Spot](bus, GetSpotHandler{Directory: dir})
}
