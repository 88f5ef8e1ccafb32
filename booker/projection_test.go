package booker

import (
	"testing"
	"time"
)

func slotAt(hour int) Slot {
	return Slot{Time: time.Date(2026, 9, 14, hour, 0, 0, 0, time.UTC)}
}

func TestNonEmptyDays(t *testing.T) {
	sched := &Schedule{Days: map[string][]Slot{
		"2026-09-16": {slotAt(9)},
		"2026-09-14": {slotAt(9), slotAt(10)},
		"2026-09-15": {},
	}}

	days := NonEmptyDays(sched)
	if len(days) != 2 {
		t.Fatalf("expected 2 non-empty days, got %v", days)
	}
	if days[0] != "2026-09-14" || days[1] != "2026-09-16" {
		t.Fatalf("expected sorted days without the empty one, got %v", days)
	}
}

func TestNonEmptyDays_NilSchedule(t *testing.T) {
	if days := NonEmptyDays(nil); len(days) != 0 {
		t.Fatalf("expected no days for nil schedule, got %v", days)
	}
}

func TestSlotsForDate(t *testing.T) {
	sched := &Schedule{Days: map[string][]Slot{
		"2026-09-14": {slotAt(9), slotAt(10)},
	}}

	if got := SlotsForDate(sched, "2026-09-14"); len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got))
	}
	if got := SlotsForDate(sched, "2026-09-15"); len(got) != 0 {
		t.Fatalf("expected no slots for absent date, got %d", len(got))
	}
	if got := SlotsForDate(sched, ""); len(got) != 0 {
		t.Fatalf("no selection must yield no slots, got %d", len(got))
	}
	if got := SlotsForDate(nil, "2026-09-14"); len(got) != 0 {
		t.Fatalf("nil schedule must yield no slots, got %d", len(got))
	}
}
