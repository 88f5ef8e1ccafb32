package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// Rule is one weekly working window, minutes from local midnight.
type Rule struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

// SlotStarts returns slot start times within [windowStart, windowEnd) where a
// booking of length duration would not overlap any busy interval. Start times
// in the past (before now) are excluded.
//
// All times are expected to be in the same location (timezone).
func SlotStarts(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var starts []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(t, t.Add(duration), busy) {
			starts = append(starts, t)
		}
	}
	return starts
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// MonthSchedule computes, for every day of the month starting at monthStart,
// the open slot starts in loc given the weekly rules and existing busy
// intervals. Days without any open slot are omitted. The returned map is
// keyed by local date (2006-01-02); slot times carry loc as their location.
func MonthSchedule(monthStart time.Time, loc *time.Location, rules []Rule, busy []Interval, duration, step time.Duration, now time.Time) map[string][]time.Time {
	first := time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, loc)
	next := first.AddDate(0, 1, 0)

	out := map[string][]time.Time{}
	for day := first; day.Before(next); day = day.AddDate(0, 0, 1) {
		var starts []time.Time
		for _, rule := range rules {
			if rule.Weekday != day.Weekday() {
				continue
			}
			if rule.EndMinute <= rule.StartMinute {
				continue
			}
			windowStart := day.Add(time.Duration(rule.StartMinute) * time.Minute)
			windowEnd := day.Add(time.Duration(rule.EndMinute) * time.Minute)
			starts = append(starts, SlotStarts(windowStart, windowEnd, duration, step, busy, now)...)
		}
		if len(starts) > 0 {
			out[day.Format("2006-01-02")] = starts
		}
	}
	return out
}
