package availability

import (
	"errors"
	"sort"
	"time"

	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

var (
	ErrInvalidDateRange = errors.New("availability: requested dates must be today or later")
	ErrInvalidWindow    = errors.New("availability: day start must be before day end")
)

// Window is the published open hours of a spot on one calendar date.
type Window struct {
	SpotID   spots.SpotID
	Date     timerange.Date
	DayStart timerange.Clock
	DayEnd   timerange.Clock
}

func NewWindow(spotID spots.SpotID, date timerange.Date, start, end timerange.Clock) (Window, error) {
	if start >= end {
		return Window{}, ErrInvalidWindow
	}
	return Window{SpotID: spotID, Date: date, DayStart: start, DayEnd: end}, nil
}

func (w Window) Interval(loc *time.Location) timerange.Interval {
	return timerange.Interval{Start: w.DayStart.On(w.Date, loc), End: w.DayEnd.On(w.Date, loc)}
}

func (w Window) Minutes() int {
	return w.DayEnd.Minutes() - w.DayStart.Minutes()
}

// OccupiedInterval is a time range of one slot already taken by a pending or confirmed reservation.
type OccupiedInterval struct {
	SpotID     spots.SpotID
	SlotNumber int
	Date       timerange.Date
	Start      timerange.Clock
	End        timerange.Clock
}

func (o OccupiedInterval) Interval(loc *time.Location) timerange.Interval {
	return timerange.Interval{Start: o.Start.On(o.Date, loc), End: o.End.On(o.Date, loc)}
}

// Day is the availability of every slot of a spot on one date. Window is nil when the spot
// publishes no open hours for the date; Slots is empty in that case.
type Day struct {
	Date   timerange.Date
	Window *Window
	Slots  map[int][]OccupiedInterval
}

func (d Day) Bookable() bool { return d.Window != nil }

// Index is an immutable availability snapshot for one spot and a set of dates.
type Index struct {
	spotID    spots.SpotID
	slotCount int
	loc       *time.Location
	dates     []timerange.Date
	days      map[timerange.Date]Day
	fetchedAt time.Time
	dropped   int
}

func (idx *Index) SpotID() spots.SpotID { return idx.spotID }

func (idx *Index) SlotCount() int { return idx.slotCount }

func (idx *Index) Location() *time.Location { return idx.loc }

func (idx *Index) FetchedAt() time.Time { return idx.fetchedAt }

// DroppedIntervals counts occupied intervals that were malformed or out of range in the payload.
func (idx *Index) DroppedIntervals() int { return idx.dropped }

func (idx *Index) Dates() []timerange.Date { return append([]timerange.Date(nil), idx.dates...) }

func (idx *Index) HasSlot(n int) bool { return n >= 1 && n <= idx.slotCount }

func (idx *Index) Contains(d timerange.Date) bool {
	_, ok := idx.days[d]
	return ok
}

// Day returns a copy of the availability for d.
func (idx *Index) Day(d timerange.Date) (Day, bool) {
	day, ok := idx.days[d]
	if !ok {
		return Day{}, false
	}
	out := Day{Date: day.Date, Slots: make(map[int][]OccupiedInterval, len(day.Slots))}
	if day.Window != nil {
		w := *day.Window
		out.Window = &w
	}
	for n, occ := range day.Slots {
		out.Slots[n] = append([]OccupiedInterval(nil), occ...)
	}
	return out, true
}

func (idx *Index) Window(d timerange.Date) (Window, bool) {
	day, ok := idx.days[d]
	if !ok || day.Window == nil {
		return Window{}, false
	}
	return *day.Window, true
}

// Occupied returns the occupied intervals of one slot on d, in snapshot order.
func (idx *Index) Occupied(d timerange.Date, slot int) []OccupiedInterval {
	day, ok := idx.days[d]
	if !ok {
		return nil
	}
	return append([]OccupiedInterval(nil), day.Slots[slot]...)
}

// BookableDates lists the requested dates that have an open window, in ascending order.
func (idx *Index) BookableDates() []timerange.Date {
	var out []timerange.Date
	for _, d := range idx.dates {
		if idx.days[d].Window != nil {
			out = append(out, d)
		}
	}
	return out
}

// SlotView is the render-ready classification of one slot on one date.
type SlotView struct {
	Number     int
	Occupancy  Occupancy
	Selectable bool
	Occupied   []OccupiedInterval
}

// Slots classifies every slot of d. It recomputes from the snapshot on each call and returns
// nil for dates without a window.
func (idx *Index) Slots(d timerange.Date) []SlotView {
	day, ok := idx.days[d]
	if !ok || day.Window == nil {
		return nil
	}
	views := make([]SlotView, 0, idx.slotCount)
	for n := 1; n <= idx.slotCount; n++ {
		occ := append([]OccupiedInterval(nil), day.Slots[n]...)
		class := Classify(*day.Window, occ)
		views = append(views, SlotView{Number: n, Occupancy: class, Selectable: class.Selectable(), Occupied: occ})
	}
	return views
}

// Classification returns the occupancy of one slot on d; ok is false for dates without a
// window or unknown slots.
func (idx *Index) Classification(d timerange.Date, slot int) (Occupancy, bool) {
	day, ok := idx.days[d]
	if !ok || day.Window == nil || !idx.HasSlot(slot) {
		return "", false
	}
	return Classify(*day.Window, day.Slots[slot]), true
}

func sortDates(dates []timerange.Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
