package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"parkshare/internal/domain/shared/money"
	"parkshare/internal/domain/spots"
)

const listKey = "list"

type CacheObserver interface {
	ObserveCache(result string)
}

// SpotDirectory caches Spot Directory answers in Redis. Redis failures fall through to the
// wrapped directory; they never fail a lookup.
type SpotDirectory struct {
	Next     spots.Directory
	Client   *redis.Client
	TTL      time.Duration
	Prefix   string
	Observer CacheObserver
	Logger   *slog.Logger
}

func (d *SpotDirectory) Spot(ctx context.Context, id spots.SpotID) (spots.Spot, error) {
	key := d.key(string(id))
	var rec spotRecord
	if d.get(ctx, key, &rec) {
		return rec.toSpot(), nil
	}
	spot, err := d.Next.Spot(ctx, id)
	if err != nil {
		return spots.Spot{}, err
	}
	d.set(ctx, key, recordOf(spot))
	return spot, nil
}

func (d *SpotDirectory) List(ctx context.Context) ([]spots.Spot, error) {
	key := d.key(listKey)
	var recs []spotRecord
	if d.get(ctx, key, &recs) {
		out := make([]spots.Spot, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.toSpot())
		}
		return out, nil
	}
	list, err := d.Next.List(ctx)
	if err != nil {
		return nil, err
	}
	recs = make([]spotRecord, 0, len(list))
	for _, s := range list {
		recs = append(recs, recordOf(s))
	}
	d.set(ctx, key, recs)
	return list, nil
}

// Invalidate forgets id and the cached list.
func (d *SpotDirectory) Invalidate(ctx context.Context, id spots.SpotID) error {
	return d.Client.Del(ctx, d.key(string(id)), d.key(listKey)).Err()
}

func (d *SpotDirectory) get(ctx context.Context, key string, out any) bool {
	raw, err := d.Client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		d.observe("miss")
		return false
	case err != nil:
		d.observe("error")
		d.log().WarnContext(ctx, "spot cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		d.observe("error")
		d.log().WarnContext(ctx, "spot cache entry unreadable", "key", key, "error", err)
		return false
	}
	d.observe("hit")
	return true
}

func (d *SpotDirectory) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.Client.Set(ctx, key, raw, d.ttl()).Err(); err != nil {
		d.log().WarnContext(ctx, "spot cache write failed", "key", key, "error", err)
	}
}

func (d *SpotDirectory) key(suffix string) string {
	prefix := d.Prefix
	if prefix == "" {
		prefix = "parkshare:spots"
	}
	return prefix + ":" + suffix
}

func (d *SpotDirectory) ttl() time.Duration {
	if d.TTL <= 0 {
		return time.Minute
	}
	return d.TTL
}

func (d *SpotDirectory) observe(result string) {
	if d.Observer != nil {
		d.Observer.ObserveCache(result)
	}
}

func (d *SpotDirectory) log() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

type spotRecord struct {
	ID        string  `json:"id"`
	Owner     string  `json:"owner,omitempty"`
	Title     string  `json:"title"`
	Address   string  `json:"address,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PriceHour int64   `json:"price_hour"`
	PriceDay  int64   `json:"price_day"`
	Currency  string  `json:"currency"`
	Size      string  `json:"size,omitempty"`
	Type      string  `json:"type"`
	SlotCount int     `json:"slot_count"`
	Status    string  `json:"status"`
}

func recordOf(s spots.Spot) spotRecord {
	currency := s.PriceHour.Currency
	if currency == "" {
		currency = s.PriceDay.Currency
	}
	return spotRecord{
		ID:        string(s.ID),
		Owner:     string(s.Owner),
		Title:     s.Title,
		Address:   s.Location.Address,
		Lat:       s.Location.Lat,
		Lon:       s.Location.Lon,
		PriceHour: s.PriceHour.Amount,
		PriceDay:  s.PriceDay.Amount,
		Currency:  currency,
		Size:      s.Size,
		Type:      string(s.Type),
		SlotCount: s.SlotCount,
		Status:    string(s.Status),
	}
}

func (r spotRecord) toSpot() spots.Spot {
	return spots.Spot{
		ID:        spots.SpotID(r.ID),
		Owner:     spots.OwnerID(r.Owner),
		Title:     r.Title,
		Location:  spots.Location{Address: r.Address, Lat: r.Lat, Lon: r.Lon},
		PriceHour: money.Money{Amount: r.PriceHour, Currency: r.Currency},
		PriceDay:  money.Money{Amount: r.PriceDay, Currency: r.Currency},
		Size:      r.Size,
		Type:      spots.SpotType(r.Type),
		SlotCount: r.SlotCount,
		Status:    spots.Status(r.Status),
	}
}

var _ spots.Directory = (*SpotDirectory)(nil)
