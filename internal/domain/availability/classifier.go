package availability

import (
	"time"

	"parkshare/internal/domain/shared/timerange"
)

type Occupancy string

const (
	Free    Occupancy = "FREE"
	Partial Occupancy = "PARTIAL"
	Full    Occupancy = "FULL"
)

// Selectable reports whether the renderer may offer the slot for selection.
func (o Occupancy) Selectable() bool {
	return o == Free || o == Partial
}

// Classify labels a slot relative to the day's window. Occupied minutes are summed without
// merging, so overlapping reservations in the data can push a slot to Full early.
func Classify(w Window, occupied []OccupiedInterval) Occupancy {
	if len(occupied) == 0 {
		return Free
	}
	// Clock arithmetic only; UTC keeps DST transitions out of the minute counts.
	window := w.Interval(time.UTC)
	intervals := make([]timerange.Interval, 0, len(occupied))
	for _, o := range occupied {
		intervals = append(intervals, o.Interval(time.UTC))
	}
	if timerange.SumOccupied(intervals) >= timerange.DurationMinutes(window.Start, window.End) {
		return Full
	}
	return Partial
}
