package booking

import (
	"math"
	"sort"
	"time"

	"tecnicosrd/models"
)

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

// ComputeSlots splits the weekly windows into SlotMinutes slots for days dates
// starting at from. A slot is unavailable when it starts before now or overlaps an
// active booking. Dates are evaluated in from's location.
func ComputeSlots(windows []models.AvailabilityWindow, bookings []models.Booking, from time.Time, days int, now time.Time) []models.Slot {
	loc := from.Location()
	first := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)

	var slots []models.Slot
	for d := 0; d < days; d++ {
		day := first.AddDate(0, 0, d)
		date := day.Format(DateLayout)
		for _, w := range windows {
			if w.Weekday != int(day.Weekday()) {
				continue
			}
			for start := w.Start; start+SlotMinutes <= w.End; start += SlotMinutes {
				end := start + SlotMinutes
				startsAt := day.Add(time.Duration(start) * time.Minute)
				slots = append(slots, models.Slot{
					Date:      date,
					Start:     start,
					End:       end,
					Available: startsAt.After(now) && !taken(bookings, date, start, end),
				})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Start < slots[j].Start
	})
	return slots
}

func taken(bookings []models.Booking, date string, start, end int) bool {
	for _, b := range bookings {
		if b.Status.IsActive() && b.Overlaps(date, start, end) {
			return true
		}
	}
	return false
}

// findSlot returns the slot starting at start on date.
func findSlot(slots []models.Slot, date string, start int) (models.Slot, bool) {
	for _, s := range slots {
		if s.Date == date && s.Start == start {
			return s, true
		}
	}
	return models.Slot{}, false
}

// Quote prices a job at the technician's hourly rate.
func Quote(hourlyRate float64, start, end int, feeRate float64) (price, fee float64) {
	hours := float64(end-start) / 60
	price = round2(hourlyRate * hours)
	fee = round2(price * feeRate)
	return price, fee
}

// StartsAt resolves a booking's date and start minute in loc.
func StartsAt(date string, start int, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(start) * time.Minute), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
