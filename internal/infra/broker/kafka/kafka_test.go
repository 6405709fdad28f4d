package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/domain/spots"
)

func TestProducer_PublishesKeyedMessage(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		if string(key) != "s-1" {
			return errors.New("unexpected key " + string(key))
		}
		if msg.Topic != "booking.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("headers not sorted")
		}
		return nil
	})
	p := NewProducerFrom(mock)

	err := p.Publish(context.Background(), "booking.events.v1", "s-1", []byte(`{}`), map[string]string{
		"x-request-id": "r", "content-type": "application/cloudevents+json",
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducer_HonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

type recordingCache struct {
	ids  []spots.SpotID
	fail error
}

func (c *recordingCache) Invalidate(_ context.Context, id spots.SpotID) error {
	if c.fail != nil {
		return c.fail
	}
	c.ids = append(c.ids, id)
	return nil
}

type setInbox map[string]bool

func (s setInbox) Seen(_ context.Context, id string) (bool, error) {
	if s[id] {
		return true, nil
	}
	s[id] = true
	return false, nil
}

func TestSpotEventsHandler(t *testing.T) {
	cache := &recordingCache{}
	h := SpotEventsHandler{Cache: cache, Inbox: setInbox{}}
	ctx := context.Background()
	msg := func(body string) *sarama.ConsumerMessage { return &sarama.ConsumerMessage{Value: []byte(body)} }

	require.NoError(t, h.Handle(ctx, msg(`{"id":"e1","type":"spot.updated.v1","data":{"spot_id":9}}`)))
	require.NoError(t, h.Handle(ctx, msg(`{"id":"e1","type":"spot.updated.v1","data":{"spot_id":9}}`)))
	require.NoError(t, h.Handle(ctx, msg(`{"id":"e2","type":"spot.disabled.v1","subject":"abc"}`)))
	require.NoError(t, h.Handle(ctx, msg(`{"id":"e3","type":"booking.submitted.v1","data":{"spot_id":1}}`)))
	require.NoError(t, h.Handle(ctx, msg(`not json`)))

	assert.Equal(t, []spots.SpotID{"9", "abc"}, cache.ids)

	cache.fail = errors.New("redis down")
	assert.Error(t, h.Handle(ctx, msg(`{"id":"e4","type":"spot.updated.v1","data":{"id":"7"}}`)))
}
