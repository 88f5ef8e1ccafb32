package handlers

import (
	"testing"
	"time"

	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/model"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/storage"
)

func TestBookingStatus(t *testing.T) {
	in2h := time.Now().Add(2 * time.Hour)
	in3d := time.Now().Add(72 * time.Hour)

	cases := []struct {
		name  string
		event storage.BookableEvent
		start time.Time
		want  string
	}{
		{
			name:  "no confirmation required",
			event: storage.BookableEvent{},
			start: in3d,
			want:  model.StatusAccepted,
		},
		{
			name:  "confirmation required, no threshold",
			event: storage.BookableEvent{RequiresConfirmation: true},
			start: in2h,
			want:  model.StatusPending,
		},
		{
			name: "beyond threshold stays pending",
			event: storage.BookableEvent{
				RequiresConfirmation:         true,
				ConfirmationThresholdMinutes: 24 * 60,
			},
			start: in3d,
			want:  model.StatusPending,
		},
		{
			name: "inside threshold auto-accepts",
			event: storage.BookableEvent{
				RequiresConfirmation:         true,
				ConfirmationThresholdMinutes: 24 * 60,
			},
			start: in2h,
			want:  model.StatusAccepted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := bookingStatus(tc.event, tc.start); got != tc.want {
				t.Fatalf("bookingStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanGuests(t *testing.T) {
	got := cleanGuests([]string{" a@b.com ", "", "  ", "c@d.com"})
	if len(got) != 2 || got[0] != "a@b.com" || got[1] != "c@d.com" {
		t.Fatalf("cleanGuests = %v", got)
	}
	if cleanGuests(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
}
