package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/spots"
)

const maxSpotPages = 50

type spotPayload struct {
	ID        flexString `json:"id"`
	Owner     flexString `json:"owner"`
	Title     string     `json:"title"`
	Address   string     `json:"address"`
	Latitude  flexString `json:"latitude"`
	Longitude flexString `json:"longitude"`
	PriceHour flexString `json:"price_hour"`
	PriceDay  flexString `json:"price_day"`
	Size      string     `json:"size"`
	Type      string     `json:"tipo_vaga"`
	Quantity  flexString `json:"quantity"`
	Status    string     `json:"status"`
}

func (p spotPayload) toSpot() (spots.Spot, error) {
	hour, err := price(p.PriceHour)
	if err != nil {
		return spots.Spot{}, fmt.Errorf("price_hour: %w", err)
	}
	day, err := price(p.PriceDay)
	if err != nil {
		return spots.Spot{}, fmt.Errorf("price_day: %w", err)
	}
	slots, _ := strconv.Atoi(p.Quantity.String())
	lat, _ := strconv.ParseFloat(p.Latitude.String(), 64)
	lon, _ := strconv.ParseFloat(p.Longitude.String(), 64)
	return spots.NewSpot(spots.NewSpotParams{
		ID:        spots.SpotID(p.ID),
		Owner:     spots.OwnerID(p.Owner),
		Title:     p.Title,
		Location:  spots.Location{Address: p.Address, Lat: lat, Lon: lon},
		PriceHour: hour,
		PriceDay:  day,
		Size:      p.Size,
		Type:      spots.ParseSpotType(p.Type),
		SlotCount: slots,
		Status:    spots.Status(strings.TrimSpace(p.Status)),
	})
}

// price reads a decimal rate; a missing rate is zero, which renders as "N/A".
func price(raw flexString) (money.Money, error) {
	if strings.TrimSpace(raw.String()) == "" {
		return money.Money{Currency: money.DefaultCurrency}, nil
	}
	return money.ParseDecimal(raw.String(), money.DefaultCurrency)
}

// Spot implements spots.Directory.
func (c *Client) Spot(ctx context.Context, id spots.SpotID) (spots.Spot, error) {
	if strings.TrimSpace(string(id)) == "" {
		return spots.Spot{}, spots.ErrSpotIDRequired
	}
	var p spotPayload
	err := c.do(ctx, request{
		op:       "spots.get",
		method:   http.MethodGet,
		path:     "/spots/" + url.PathEscape(string(id)) + "/",
		notFound: spots.ErrSpotNotFound,
	}, &p)
	if err != nil {
		return spots.Spot{}, err
	}
	spot, err := p.toSpot()
	if err != nil {
		return spots.Spot{}, fmt.Errorf("backend: spot %s: %w", id, err)
	}
	return spot, nil
}

type spotPage struct {
	Results []spotPayload `json:"results"`
	Next    string        `json:"next"`
}

// List implements spots.Directory. It accepts both paginated and bare-array answers and
// skips entries it cannot read.
func (c *Client) List(ctx context.Context) ([]spots.Spot, error) {
	var out []spots.Spot
	path := "/spots/"
	for page := 0; path != "" && page < maxSpotPages; page++ {
		var raw json.RawMessage
		if err := c.do(ctx, request{op: "spots.list", method: http.MethodGet, path: path}, &raw); err != nil {
			return nil, err
		}
		items, next, err := decodeSpotPage(raw)
		if err != nil {
			return nil, fmt.Errorf("backend: spots.list: %w", err)
		}
		for _, p := range items {
			s, err := p.toSpot()
			if err != nil {
				c.log().WarnContext(ctx, "skipping unreadable spot", "spot_id", p.ID.String(), "error", err)
				continue
			}
			out = append(out, s)
		}
		path = next
	}
	return out, nil
}

func decodeSpotPage(raw json.RawMessage) ([]spotPayload, string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var items []spotPayload
		err := json.Unmarshal(raw, &items)
		return items, "", err
	}
	var page spotPage
	err := json.Unmarshal(raw, &page)
	return page.Results, page.Next, err
}

var _ spots.Directory = (*Client)(nil)
