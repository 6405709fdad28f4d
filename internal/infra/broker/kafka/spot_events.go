package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"parkshare/internal/domain/spots"
)

// SpotEventsTopic carries spot changes published by the Spot Directory Service.
const SpotEventsTopic = "spot.events.v1"

type SpotInvalidator interface {
	Invalidate(ctx context.Context, id spots.SpotID) error
}

type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// SpotEventsHandler drops cached spot details when the directory announces a change. A
// failed invalidation is not retried; the cache TTL bounds how stale a spot can get.
type SpotEventsHandler struct {
	Cache  SpotInvalidator
	Inbox  Inbox
	Logger *slog.Logger
}

type cloudEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

func (h SpotEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.log().WarnContext(ctx, "skipping malformed spot event", "offset", msg.Offset, "error", err)
		return nil
	}
	if !strings.HasPrefix(evt.Type, "spot.") {
		return nil
	}
	id := evt.spotID()
	if id == "" {
		h.log().WarnContext(ctx, "spot event without spot id", "event_id", evt.ID, "type", evt.Type)
		return nil
	}
	if h.Inbox != nil && evt.ID != "" {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return fmt.Errorf("kafka: inbox: %w", err)
		}
		if seen {
			return nil
		}
	}
	if err := h.Cache.Invalidate(ctx, id); err != nil {
		return fmt.Errorf("kafka: invalidate spot %s: %w", id, err)
	}
	h.log().DebugContext(ctx, "spot cache invalidated", "spot_id", id, "type", evt.Type)
	return nil
}

// spotID reads data.spot_id or data.id, numeric or string, and falls back to the subject.
func (e cloudEvent) spotID() spots.SpotID {
	if len(e.Data) > 0 {
		var data map[string]any
		dec := json.NewDecoder(bytes.NewReader(e.Data))
		dec.UseNumber()
		if err := dec.Decode(&data); err == nil {
			for _, key := range []string{"spot_id", "id"} {
				switch v := data[key].(type) {
				case json.Number:
					return spots.SpotID(v.String())
				case string:
					if v != "" {
						return spots.SpotID(v)
					}
				}
			}
		}
	}
	return spots.SpotID(e.Subject)
}

func (h SpotEventsHandler) log() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
