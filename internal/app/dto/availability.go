package dto

import "parkshare/internal/domain/availability"

type AvailabilityDay struct {
	Date     string  `json:"date"`
	Bookable bool    `json:"bookable"`
	Window   *Window `json:"window,omitempty"`
	Slots    []Slot  `json:"slots"`
}

type Availability struct {
	SpotID    string            `json:"spot_id"`
	SlotCount int               `json:"slot_count"`
	Dates     []AvailabilityDay `json:"dates"`
	Dropped   int               `json:"dropped_intervals,omitempty"`
}

func MapAvailability(idx *availability.Index) Availability {
	out := Availability{
		SpotID:    string(idx.SpotID()),
		SlotCount: idx.SlotCount(),
		Dates:     []AvailabilityDay{},
		Dropped:   idx.DroppedIntervals(),
	}
	for _, d := range idx.Dates() {
		day := AvailabilityDay{Date: d.String(), Slots: []Slot{}}
		if w, ok := idx.Window(d); ok {
			day.Bookable = true
			day.Window = mapWindow(w)
		}
		for _, sv := range idx.Slots(d) {
			day.Slots = append(day.Slots, mapSlot(sv))
		}
		out.Dates = append(out.Dates, day)
	}
	return out
}

func mapWindow(w availability.Window) *Window {
	return &Window{
		Start: w.DayStart.String(),
		End:   w.DayEnd.String(),
		Label: w.DayStart.String() + " até " + w.DayEnd.String(),
	}
}
