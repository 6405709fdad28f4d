package spots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/app/dto"
	"parkshare/internal/app/queries"
	"parkshare/internal/domain/shared/money"
	domainspots "parkshare/internal/domain/spots"
)

type fixedDirectory []domainspots.Spot

func (d fixedDirectory) Spot(_ context.Context, id domainspots.SpotID) (domainspots.Spot, error) {
	for _, s := range d {
		if s.ID == id {
			return s, nil
		}
	}
	return domainspots.Spot{}, domainspots.ErrSpotNotFound
}

func (d fixedDirectory) List(context.Context) ([]domainspots.Spot, error) { return d, nil }

func spot(t *testing.T, id string, status domainspots.Status) domainspots.Spot {
	t.Helper()
	s, err := domainspots.NewSpot(domainspots.NewSpotParams{
		ID: domainspots.SpotID(id), Title: "Vaga " + id, Type: domainspots.TypeGarage,
		PriceHour: money.Must(1000, "BRL"), Status: status,
	})
	require.NoError(t, err)
	return s
}

func TestListSpots_ActiveOnlyByDefault(t *testing.T) {
	bus := queries.NewInMemoryBus()
	Register(bus, fixedDirectory{
		spot(t, "b", domainspots.StatusActive),
		spot(t, "c", domainspots.StatusDisabled),
		spot(t, "a", domainspots.StatusActive),
	})
	ctx := context.Background()

	list, err := queries.Ask[ListSpotsQuery, []dto.Spot](ctx, bus, ListSpotsQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "Garagem", list[0].TypeLabel)
	assert.Equal(t, "R$ 10,00", list[0].PriceHour)
	assert.Equal(t, "N/A", list[0].PriceDay)
	assert.Equal(t, []string{"hourly"}, list[0].Modes)

	all, err := queries.Ask[ListSpotsQuery, []dto.Spot](ctx, bus, ListSpotsQuery{IncludeDisabled: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = queries.Ask[GetSpotQuery, dto.Spot](ctx, bus, GetSpotQuery{SpotID: "zz"})
	assert.ErrorIs(t, err, domainspots.ErrSpotNotFound)
}
