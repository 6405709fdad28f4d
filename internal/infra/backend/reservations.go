package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/spots"
)

type createReservationBody struct {
	Spot       string `json:"spot"`
	SlotNumber int    `json:"slot_number"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type reservationPayload struct {
	ID             flexString `json:"id"`
	Spot           flexString `json:"spot"`
	SpotTitle      string     `json:"spot_title"`
	SlotNumber     flexString `json:"slot_number"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	TotalPrice     flexString `json:"total_price"`
	Status         string     `json:"status"`
	Renter         flexString `json:"renter"`
	ConversationID flexString `json:"conversation_id"`
}

func (p reservationPayload) toReservation() (reservations.Reservation, error) {
	start, err := time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, p.EndTime)
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("end_time: %w", err)
	}
	total, err := price(p.TotalPrice)
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("total_price: %w", err)
	}
	slot, _ := strconv.Atoi(p.SlotNumber.String())
	r := reservations.Reservation{
		ID:         reservations.ReservationID(p.ID),
		SpotID:     spots.SpotID(p.Spot),
		SpotTitle:  p.SpotTitle,
		SlotNumber: slot,
		Start:      start.UTC(),
		End:        end.UTC(),
		TotalPrice: total,
		Status:     reservations.ParseStatus(p.Status),
		RenterID:   p.Renter.String(),
	}
	if conv := p.ConversationID.String(); conv != "" {
		r.ConversationID = &conv
	}
	return r, nil
}

func (c *Client) reservationPath(id reservations.ReservationID, suffix string) string {
	return "/reservations/" + url.PathEscape(string(id)) + "/" + suffix
}

// Create posts a validated booking. The idempotency key is forwarded so a repeated
// confirmation does not create a second reservation.
func (c *Client) Create(ctx context.Context, req reservations.CreateRequest) (reservations.Reservation, error) {
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}
	var p reservationPayload
	err := c.do(ctx, request{
		op:     "reservations.create",
		method: http.MethodPost,
		path:   "/reservations/",
		body: createReservationBody{
			Spot:       string(req.SpotID),
			SlotNumber: req.SlotNumber,
			StartTime:  req.Start.UTC().Format(time.RFC3339),
			EndTime:    req.End.UTC().Format(time.RFC3339),
		},
		headers:  headers,
		notFound: spots.ErrSpotNotFound,
	}, &p)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if p.ID == "" {
		return reservations.Reservation{}, &Error{Op: "reservations.create", Kind: KindUnavailable, Message: "unexpected response from the reservation service"}
	}
	return c.readReservation(p, req)
}

// readReservation fills fields the create answer may omit from the request that produced it.
func (c *Client) readReservation(p reservationPayload, req reservations.CreateRequest) (reservations.Reservation, error) {
	if p.Spot == "" {
		p.Spot = flexString(req.SpotID)
	}
	if p.SlotNumber == "" {
		p.SlotNumber = flexString(strconv.Itoa(req.SlotNumber))
	}
	if p.StartTime == "" {
		p.StartTime = req.Start.UTC().Format(time.RFC3339)
	}
	if p.EndTime == "" {
		p.EndTime = req.End.UTC().Format(time.RFC3339)
	}
	if strings.TrimSpace(p.Status) == "" {
		p.Status = string(reservations.StatusPending)
	}
	r, err := p.toReservation()
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("backend: reservations.create: %w", err)
	}
	return r, nil
}

func (c *Client) Cancel(ctx context.Context, id reservations.ReservationID) error {
	return c.do(ctx, request{
		op:       "reservations.cancel",
		method:   http.MethodDelete,
		path:     c.reservationPath(id, ""),
		notFound: reservations.ErrReservationNotFound,
	}, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, id reservations.ReservationID, action reservations.Action) (reservations.Reservation, error) {
	var p reservationPayload
	err := c.do(ctx, request{
		op:       "reservations.update_status",
		method:   http.MethodPost,
		path:     c.reservationPath(id, "update-status/"),
		body:     map[string]string{"action": string(action)},
		notFound: reservations.ErrReservationNotFound,
	}, &p)
	if err != nil {
		return reservations.Reservation{}, err
	}
	r, err := p.toReservation()
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("backend: reservations.update_status: %w", err)
	}
	return r, nil
}

func (c *Client) ListMine(ctx context.Context) ([]reservations.Reservation, error) {
	return c.list(ctx, "reservations.mine", "/my-reservations/", nil)
}

func (c *Client) ListForSpot(ctx context.Context, spotID spots.SpotID) ([]reservations.Reservation, error) {
	return c.list(ctx, "reservations.for_spot", "/parking-spots/"+url.PathEscape(string(spotID))+"/reservations/", spots.ErrSpotNotFound)
}

func (c *Client) list(ctx context.Context, op, path string, notFound error) ([]reservations.Reservation, error) {
	var items []reservationPayload
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, notFound: notFound}, &items); err != nil {
		return nil, err
	}
	out := make([]reservations.Reservation, 0, len(items))
	for _, p := range items {
		r, err := p.toReservation()
		if err != nil {
			c.log().WarnContext(ctx, "skipping unreadable reservation", "op", op, "reservation_id", p.ID.String(), "error", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

var _ reservations.API = (*Client)(nil)
