package technician

import (
	"fmt"
	"sort"

	"tecnicosrd/models"
	"tecnicosrd/utils"
)

const minutesPerDay = 24 * 60

// ValidateWindows checks bounds and that windows of the same weekday do not overlap.
// It returns the windows sorted by weekday and start.
func ValidateWindows(windows []models.AvailabilityWindow) ([]models.AvailabilityWindow, error) {
	sorted := make([]models.AvailabilityWindow, len(windows))
	copy(sorted, windows)

	for i, w := range sorted {
		field := fmt.Sprintf("windows[%d]", i)
		if w.Weekday < 0 || w.Weekday > 6 {
			return nil, utils.Invalid(field, "weekday must be between 0 (Sunday) and 6 (Saturday)")
		}
		if w.Start < 0 || w.End > minutesPerDay || w.Start >= w.End {
			return nil, utils.Invalid(field, "start and end must satisfy 0 <= start < end <= 1440")
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Weekday != sorted[j].Weekday {
			return sorted[i].Weekday < sorted[j].Weekday
		}
		return sorted[i].Start < sorted[j].Start
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Weekday == cur.Weekday && cur.Start < prev.End {
			return nil, utils.Invalid("windows", fmt.Sprintf("windows overlap on weekday %d", cur.Weekday))
		}
	}
	return sorted, nil
}
