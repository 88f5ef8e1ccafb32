package booker

import "sort"

// NonEmptyDays returns the sorted dates that have at least one open slot.
// A nil schedule yields no days.
func NonEmptyDays(s *Schedule) []string {
	if s == nil {
		return nil
	}
	days := make([]string, 0, len(s.Days))
	for day, slots := range s.Days {
		if len(slots) > 0 {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}

// SlotsForDate returns the slots for one date. An empty date means "nothing
// selected yet" and yields an empty result, as do nil schedules and absent
// dates. It never fails.
func SlotsForDate(s *Schedule, date string) []Slot {
	if s == nil || date == "" {
		return nil
	}
	return s.Days[date]
}
