package timerange

import "time"

// Interval represents a half-open interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports a strict overlap; intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv.Start, iv.End, other.Start, other.End)
}

// Minutes is the plain length of the interval, zero when End is not after Start.
func (iv Interval) Minutes() int {
	if !iv.End.After(iv.Start) {
		return 0
	}
	return int(iv.End.Sub(iv.Start) / time.Minute)
}

// DurationMinutes returns the minutes between start and end. When end is not after start the
// end is moved to the following day, which models overnight hourly bookings. Callers that
// need same-day semantics must check end > start first.
func DurationMinutes(start, end time.Time) int {
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return int(end.Sub(start) / time.Minute)
}

// SumOccupied adds up individual interval lengths without merging overlaps between them.
func SumOccupied(intervals []Interval) int {
	total := 0
	for _, iv := range intervals {
		total += iv.Minutes()
	}
	return total
}
