package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

type availabilityPayload struct {
	DatesAvailability json.RawMessage `json:"dates_availability"`
}

type dayPayload struct {
	Date     string        `json:"date"`
	DayStart string        `json:"day_start_time"`
	DayEnd   string        `json:"day_end_time"`
	Slots    []slotPayload `json:"slots"`
}

type slotPayload struct {
	Number   int               `json:"slot_number"`
	Occupied []intervalPayload `json:"occupied_times"`
}

type intervalPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability implements availability.Source.
func (c *Client) Availability(ctx context.Context, spotID spots.SpotID, dates []timerange.Date) (availability.Snapshot, error) {
	raw := make([]string, 0, len(dates))
	for _, d := range dates {
		raw = append(raw, d.String())
	}
	var p availabilityPayload
	err := c.do(ctx, request{
		op:       "spots.availability",
		method:   http.MethodGet,
		path:     "/spots/" + url.PathEscape(string(spotID)) + "/availability/",
		query:    url.Values{"dates": {strings.Join(raw, ",")}},
		notFound: spots.ErrSpotNotFound,
	}, &p)
	if err != nil {
		return availability.Snapshot{}, err
	}
	days, err := decodeDays(p.DatesAvailability)
	if err != nil {
		return availability.Snapshot{}, &Error{Op: "spots.availability", Kind: KindUnavailable, Message: "unexpected response from the reservation service", cause: err}
	}
	snap := availability.Snapshot{Dates: make([]availability.DaySnapshot, 0, len(days))}
	for _, d := range days {
		day := availability.DaySnapshot{Date: d.Date, DayStart: d.DayStart, DayEnd: d.DayEnd}
		for _, s := range d.Slots {
			slot := availability.SlotSnapshot{Number: s.Number}
			for _, iv := range s.Occupied {
				slot.Occupied = append(slot.Occupied, availability.RawInterval{
					Start: c.clockText(iv.Start),
					End:   c.clockText(iv.End),
				})
			}
			day.Slots = append(day.Slots, slot)
		}
		snap.Dates = append(snap.Dates, day)
	}
	return snap, nil
}

// decodeDays accepts the list directly or wrapped once more under the same key.
func decodeDays(raw json.RawMessage) ([]dayPayload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var days []dayPayload
	if err := json.Unmarshal(raw, &days); err == nil {
		return days, nil
	}
	var nested availabilityPayload
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	return decodeDays(nested.DatesAvailability)
}

// clockText converts full timestamps to local wall-clock "HH:MM"; plain clock values pass
// through untouched and malformed ones are left for the index builder to drop.
func (c *Client) clockText(raw string) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.In(c.location()).Format("15:04")
}

var _ availability.Source = (*Client)(nil)
