package availability

import (
	"context"
	"fmt"
	"time"

	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

// Snapshot mirrors the Reservation API availability payload before validation.
type Snapshot struct {
	Dates []DaySnapshot
}

type DaySnapshot struct {
	Date     string
	DayStart string
	DayEnd   string
	Slots    []SlotSnapshot
}

type SlotSnapshot struct {
	Number   int
	Occupied []RawInterval
}

type RawInterval struct {
	Start string
	End   string
}

// Source fetches the raw availability snapshot of a spot for the given dates.
type Source interface {
	Availability(ctx context.Context, spotID spots.SpotID, dates []timerange.Date) (Snapshot, error)
}

// Service builds availability indexes for booking sessions.
type Service struct {
	Spots    spots.Directory
	Source   Source
	Location *time.Location
	Now      func() time.Time
}

// GetAvailability resolves the spot, checks that no requested date lies before today and builds
// a fresh Index from the Reservation API snapshot.
func (s *Service) GetAvailability(ctx context.Context, spotID spots.SpotID, dates []timerange.Date) (*Index, error) {
	spot, err := s.Spots.Spot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	requested, err := s.checkDates(dates)
	if err != nil {
		return nil, err
	}
	snap, err := s.Source.Availability(ctx, spot.ID, requested)
	if err != nil {
		return nil, fmt.Errorf("availability: fetch spot %s: %w", spot.ID, err)
	}
	return Build(spot, requested, snap, s.location(), s.now()), nil
}

func (s *Service) checkDates(dates []timerange.Date) ([]timerange.Date, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no dates requested", ErrInvalidDateRange)
	}
	today := timerange.DateOf(s.now(), s.location())
	seen := make(map[timerange.Date]struct{}, len(dates))
	out := make([]timerange.Date, 0, len(dates))
	for _, d := range dates {
		if d.Before(today) {
			return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidDateRange, d, today)
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sortDates(out)
	return out, nil
}

func (s *Service) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Build turns a raw snapshot into an Index covering exactly the requested dates. Windows that
// are missing or inverted leave the date unbookable; occupied intervals that cannot be parsed,
// are empty, or reference an unknown slot are dropped and counted.
func Build(spot spots.Spot, dates []timerange.Date, snap Snapshot, loc *time.Location, fetchedAt time.Time) *Index {
	if loc == nil {
		loc = time.UTC
	}
	slotCount := spot.SlotCount
	if slotCount < 1 {
		slotCount = 1
	}
	idx := &Index{
		spotID:    spot.ID,
		slotCount: slotCount,
		loc:       loc,
		dates:     append([]timerange.Date(nil), dates...),
		days:      make(map[timerange.Date]Day, len(dates)),
		fetchedAt: fetchedAt,
	}
	sortDates(idx.dates)
	for _, d := range idx.dates {
		idx.days[d] = Day{Date: d, Slots: map[int][]OccupiedInterval{}}
	}

	for _, raw := range snap.Dates {
		date, err := timerange.ParseDate(raw.Date)
		if err != nil {
			continue
		}
		day, requested := idx.days[date]
		if !requested || day.Window != nil {
			continue
		}
		window, ok := parseWindow(spot.ID, date, raw.DayStart, raw.DayEnd)
		if !ok {
			continue
		}
		day.Window = &window
		for n := 1; n <= slotCount; n++ {
			day.Slots[n] = []OccupiedInterval{}
		}
		for _, slot := range raw.Slots {
			if slot.Number < 1 || slot.Number > slotCount {
				idx.dropped += len(slot.Occupied)
				continue
			}
			for _, iv := range slot.Occupied {
				occ, ok := parseOccupied(spot.ID, slot.Number, date, iv)
				if !ok {
					idx.dropped++
					continue
				}
				day.Slots[slot.Number] = append(day.Slots[slot.Number], occ)
			}
		}
		idx.days[date] = day
	}
	return idx
}

func parseWindow(spotID spots.SpotID, date timerange.Date, rawStart, rawEnd string) (Window, bool) {
	if rawStart == "" || rawEnd == "" {
		return Window{}, false
	}
	start, err := timerange.ParseClock(rawStart)
	if err != nil {
		return Window{}, false
	}
	end, err := timerange.ParseClock(rawEnd)
	if err != nil {
		return Window{}, false
	}
	w, err := NewWindow(spotID, date, start, end)
	if err != nil {
		return Window{}, false
	}
	return w, true
}

func parseOccupied(spotID spots.SpotID, slot int, date timerange.Date, raw RawInterval) (OccupiedInterval, bool) {
	start, err := timerange.ParseClock(raw.Start)
	if err != nil {
		return OccupiedInterval{}, false
	}
	end, err := timerange.ParseClock(raw.End)
	if err != nil || end <= start {
		return OccupiedInterval{}, false
	}
	return OccupiedInterval{SpotID: spotID, SlotNumber: slot, Date: date, Start: start, End: end}, true
}
