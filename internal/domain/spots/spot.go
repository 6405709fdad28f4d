package spots

import (
	"context"
	"errors"
	"strings"

	"parkshare/internal/domain/shared/money"
)

var (
	ErrSpotNotFound   = errors.New("spots: spot not found")
	ErrSpotIDRequired = errors.New("spots: id is required")
	ErrNegativePrice  = errors.New("spots: prices must be non-negative")
)

type SpotID string
type OwnerID string

type SpotType string

const (
	TypeStreetCovered     SpotType = "rua_coberta"
	TypeStreetUncovered   SpotType = "rua_descoberta"
	TypeGarage            SpotType = "garagem"
	TypeBuildingCovered   SpotType = "predio_coberta"
	TypeBuildingUncovered SpotType = "predio_descoberta"
	TypeUnknown           SpotType = "unknown"
)

// ParseSpotType maps the wire value to a SpotType, falling back to TypeUnknown.
func ParseSpotType(raw string) SpotType {
	switch t := SpotType(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeStreetCovered, TypeStreetUncovered, TypeGarage, TypeBuildingCovered, TypeBuildingUncovered:
		return t
	default:
		return TypeUnknown
	}
}

func (t SpotType) Label() string {
	switch t {
	case TypeStreetCovered:
		return "Rua (Coberta)"
	case TypeStreetUncovered:
		return "Rua (Descoberta)"
	case TypeGarage:
		return "Garagem"
	case TypeBuildingCovered:
		return "Prédio (Coberta)"
	case TypeBuildingUncovered:
		return "Prédio (Descoberta)"
	default:
		return "Tipo desconhecido"
	}
}

type Status string

const (
	StatusActive   Status = "Ativa"
	StatusDisabled Status = "Desativada"
)

type Location struct {
	Address string
	Lat     float64
	Lon     float64
}

type Spot struct {
	ID        SpotID
	Owner     OwnerID
	Title     string
	Location  Location
	PriceHour money.Money
	PriceDay  money.Money
	Size      string
	Type      SpotType
	SlotCount int
	Status    Status
}

// Directory resolves spots from the Spot Directory Service.
type Directory interface {
	Spot(ctx context.Context, id SpotID) (Spot, error)
	List(ctx context.Context) ([]Spot, error)
}

type NewSpotParams struct {
	ID        SpotID
	Owner     OwnerID
	Title     string
	Location  Location
	PriceHour money.Money
	PriceDay  money.Money
	Size      string
	Type      SpotType
	SlotCount int
	Status    Status
}

func NewSpot(params NewSpotParams) (Spot, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return Spot{}, ErrSpotIDRequired
	}
	if params.PriceHour.Amount < 0 || params.PriceDay.Amount < 0 {
		return Spot{}, ErrNegativePrice
	}
	slots := params.SlotCount
	if slots < 1 {
		slots = 1
	}
	status := params.Status
	if status == "" {
		status = StatusActive
	}
	kind := params.Type
	if kind == "" {
		kind = TypeUnknown
	}
	return Spot{
		ID:        params.ID,
		Owner:     params.Owner,
		Title:     strings.TrimSpace(params.Title),
		Location:  params.Location,
		PriceHour: params.PriceHour,
		PriceDay:  params.PriceDay,
		Size:      params.Size,
		Type:      kind,
		SlotCount: slots,
		Status:    status,
	}, nil
}

func (s Spot) Active() bool { return s.Status == StatusActive }

func (s Spot) HasSlot(n int) bool { return n >= 1 && n <= s.SlotCount }

// HourlyBookable reports whether the spot publishes a usable hourly rate.
func (s Spot) HourlyBookable() bool { return s.PriceHour.Amount > 0 }

// DailyBookable reports whether the spot publishes a usable daily rate.
func (s Spot) DailyBookable() bool { return s.PriceDay.Amount > 0 }
