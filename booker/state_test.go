package booker

import "testing"

func TestDeriveState_TruthTable(t *testing.T) {
	cases := []struct {
		name         string
		eventLoading bool
		slotCount    int
		timeSelected bool
		want         State
	}{
		{"loading dominates everything", true, 5, true, StateLoading},
		{"loading with no slots", true, 0, false, StateLoading},
		{"no slots means picking a date", false, 0, false, StateSelectingDate},
		{"no slots even with stale time selection", false, 0, true, StateSelectingDate},
		{"slots but no time", false, 3, false, StateSelectingTime},
		{"slots and time", false, 3, true, StateBooking},
		{"single slot and time", false, 1, true, StateBooking},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveState(tc.eventLoading, tc.slotCount, tc.timeSelected)
			if got != tc.want {
				t.Fatalf("DeriveState(%v, %d, %v) = %s, want %s",
					tc.eventLoading, tc.slotCount, tc.timeSelected, got, tc.want)
			}
		})
	}
}

func TestDeriveState_Idempotent(t *testing.T) {
	a := DeriveState(false, 2, false)
	b := DeriveState(false, 2, false)
	if a != b {
		t.Fatalf("same inputs produced %s then %s", a, b)
	}
}
