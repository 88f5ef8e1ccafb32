package availability

import (
	"testing"
	"time"
)

func TestSlotStarts_Basic(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, loc)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	busy := []Interval{
		{Start: day.Add(9*time.Hour + 15*time.Minute), End: day.Add(9*time.Hour + 45*time.Minute)},
	}

	starts := SlotStarts(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, busy, day)
	if len(starts) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(starts))
	}
	if !starts[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", starts[0].Format(time.RFC3339))
	}
	if !starts[1].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected second slot 09:45, got %s", starts[1].Format(time.RFC3339))
	}
}

func TestSlotStarts_SkipsPast(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, loc)
	now := day.Add(9*time.Hour + 31*time.Minute)

	starts := SlotStarts(day.Add(9*time.Hour), day.Add(10*time.Hour), 15*time.Minute, 15*time.Minute, nil, now)
	// 09:00, 09:15, 09:30 are in the past (start < now). 09:45 is future.
	if len(starts) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(starts))
	}
	if !starts[0].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected slot 09:45, got %s", starts[0].Format(time.RFC3339))
	}
}

func TestSlotStarts_SlotMustFitWindow(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, loc)

	starts := SlotStarts(day.Add(9*time.Hour), day.Add(9*time.Hour+20*time.Minute), 30*time.Minute, 15*time.Minute, nil, day)
	if len(starts) != 0 {
		t.Fatalf("a 30m slot cannot fit a 20m window, got %d slots", len(starts))
	}
}

func TestMonthSchedule(t *testing.T) {
	loc := time.UTC
	monthStart := time.Date(2026, 9, 1, 0, 0, 0, 0, loc)
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, loc)

	// Mondays 09:00-10:00 only. September 2026 has Mondays 7, 14, 21, 28.
	rules := []Rule{{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 10 * 60}}

	// Fully book Monday the 14th.
	busy := []Interval{{
		Start: time.Date(2026, 9, 14, 9, 0, 0, 0, loc),
		End:   time.Date(2026, 9, 14, 10, 0, 0, 0, loc),
	}}

	sched := MonthSchedule(monthStart, loc, rules, busy, 30*time.Minute, 30*time.Minute, now)

	if len(sched) != 3 {
		t.Fatalf("expected 3 open Mondays, got %d (%v)", len(sched), sched)
	}
	if _, ok := sched["2026-09-14"]; ok {
		t.Fatal("fully booked day must be omitted")
	}
	if got := len(sched["2026-09-07"]); got != 2 {
		t.Fatalf("expected 2 slots on an open Monday, got %d", got)
	}
}

func TestMonthSchedule_Timezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	monthStart := time.Date(2026, 9, 1, 0, 0, 0, 0, loc)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rules := []Rule{{Weekday: time.Tuesday, StartMinute: 9 * 60, EndMinute: 9*60 + 30}}
	sched := MonthSchedule(monthStart, loc, rules, nil, 30*time.Minute, 30*time.Minute, now)

	slots, ok := sched["2026-09-01"]
	if !ok || len(slots) != 1 {
		t.Fatalf("expected one slot on Tue 2026-09-01, got %v", sched)
	}
	// 09:00 local is 13:00 UTC during EDT.
	if got := slots[0].UTC().Hour(); got != 13 {
		t.Fatalf("expected 13:00 UTC, got %02d:00", got)
	}
}
