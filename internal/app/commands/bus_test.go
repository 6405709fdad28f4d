package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ N int }

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestInMemoryBus_Dispatch(t *testing.T) {
	bus := NewInMemoryBus()
	Register[pingCommand, int](bus, HandlerFunc[pingCommand, int](func(_ context.Context, cmd pingCommand) (int, error) {
		return cmd.N + 1, nil
	}))

	got, err := Dispatch[pingCommand, int](context.Background(), bus, pingCommand{N: 41})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"test.ping"}, bus.Keys())

	_, err = Dispatch[otherCommand, int](context.Background(), bus, otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Dispatch[pingCommand, string](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = Dispatch[pingCommand, int](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestInMemoryBus_DuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[pingCommand, int](func(context.Context, pingCommand) (int, error) { return 0, nil })
	Register[pingCommand, int](bus, h)
	assert.Panics(t, func() { Register[pingCommand, int](bus, h) })
}
