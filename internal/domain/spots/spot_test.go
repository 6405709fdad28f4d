package spots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/domain/shared/money"
)

func TestNewSpot_Defaults(t *testing.T) {
	s, err := NewSpot(NewSpotParams{ID: "7", Title: "  Garagem centro "})
	require.NoError(t, err)
	assert.Equal(t, 1, s.SlotCount)
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, TypeUnknown, s.Type)
	assert.Equal(t, "Garagem centro", s.Title)
	assert.False(t, s.HourlyBookable())
	assert.False(t, s.DailyBookable())
	assert.True(t, s.HasSlot(1))
	assert.False(t, s.HasSlot(2))
}

func TestNewSpot_Validation(t *testing.T) {
	_, err := NewSpot(NewSpotParams{})
	assert.ErrorIs(t, err, ErrSpotIDRequired)

	_, err = NewSpot(NewSpotParams{ID: "1", PriceHour: money.Must(-1, "BRL")})
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestParseSpotType(t *testing.T) {
	assert.Equal(t, TypeGarage, ParseSpotType("GARAGEM"))
	assert.Equal(t, "Prédio (Coberta)", ParseSpotType("predio_coberta").Label())
	assert.Equal(t, TypeUnknown, ParseSpotType("telhado"))
}
