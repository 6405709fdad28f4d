package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/spots"
)

type countingDirectory struct {
	spot  spots.Spot
	calls int
}

func (c *countingDirectory) Spot(_ context.Context, id spots.SpotID) (spots.Spot, error) {
	c.calls++
	if id != c.spot.ID {
		return spots.Spot{}, spots.ErrSpotNotFound
	}
	return c.spot, nil
}

func (c *countingDirectory) List(context.Context) ([]spots.Spot, error) {
	c.calls++
	return []spots.Spot{c.spot}, nil
}

type results map[string]int

func (r results) ObserveCache(result string) { r[result]++ }

func newCache(t *testing.T) (*SpotDirectory, *countingDirectory, *miniredis.Miniredis, results) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	next := &countingDirectory{spot: spots.Spot{
		ID: "9", Title: "Vaga Centro", SlotCount: 3, Status: spots.StatusActive, Type: spots.TypeGarage,
		PriceHour: money.Must(1250, "BRL"), PriceDay: money.Must(6000, "BRL"),
		Location: spots.Location{Address: "Rua A, 1", Lat: -23.5, Lon: -46.6},
	}}
	obs := results{}
	return &SpotDirectory{Next: next, Client: client, TTL: time.Minute, Observer: obs}, next, mr, obs
}

func TestSpotDirectory_CachesUntilTTL(t *testing.T) {
	cache, next, mr, obs := newCache(t)
	ctx := context.Background()

	first, err := cache.Spot(ctx, "9")
	require.NoError(t, err)
	second, err := cache.Spot(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, obs["hit"])

	mr.FastForward(2 * time.Minute)
	_, err = cache.Spot(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestSpotDirectory_InvalidateDropsSpotAndList(t *testing.T) {
	cache, next, mr, _ := newCache(t)
	ctx := context.Background()

	_, err := cache.Spot(ctx, "9")
	require.NoError(t, err)
	_, err = cache.List(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("parkshare:spots:9"))
	assert.True(t, mr.Exists("parkshare:spots:list"))

	require.NoError(t, cache.Invalidate(ctx, "9"))
	assert.False(t, mr.Exists("parkshare:spots:9"))
	assert.False(t, mr.Exists("parkshare:spots:list"))

	_, err = cache.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}

func TestSpotDirectory_FailsOpen(t *testing.T) {
	cache, next, mr, obs := newCache(t)
	mr.Close()

	spot, err := cache.Spot(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "Vaga Centro", spot.Title)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, obs["error"])

	_, err = cache.Spot(context.Background(), "404")
	assert.ErrorIs(t, err, spots.ErrSpotNotFound)
}
