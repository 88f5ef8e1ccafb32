package email

import (
	"strings"
	"testing"
	"time"
)

func details() BookingDetails {
	return BookingDetails{
		UID:          "bk_123",
		HostUsername: "pro",
		EventSlug:    "thirty-min",
		AttendeeName: "Jo",
		Timezone:     "America/New_York",
		Start:        time.Date(2026, time.September, 14, 13, 0, 0, 0, time.UTC),
		End:          time.Date(2026, time.September, 14, 13, 30, 0, 0, time.UTC),
		Status:       "accepted",
	}
}

func TestConfirmationMessage(t *testing.T) {
	subject, body := ConfirmationMessage(details())
	if subject != "Booking confirmed: thirty-min with pro" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Hi Jo,") {
		t.Errorf("body missing greeting: %q", body)
	}
	if !strings.Contains(body, "Mon, 14 Sep 2026 09:00 EDT") {
		t.Errorf("body missing localized start: %q", body)
	}
	if !strings.Contains(body, "Reference: bk_123") {
		t.Errorf("body missing reference: %q", body)
	}
}

func TestConfirmationMessage_Pending(t *testing.T) {
	b := details()
	b.Status = "pending"
	subject, body := ConfirmationMessage(b)
	if subject != "Booking request sent: thirty-min with pro" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "awaiting confirmation") {
		t.Errorf("body missing pending wording: %q", body)
	}
}

func TestCancellationMessage(t *testing.T) {
	b := details()
	b.CancelReason = "double booked"
	subject, body := CancellationMessage(b)
	if subject != "Booking cancelled: thirty-min with pro" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Reason: double booked") {
		t.Errorf("body missing reason: %q", body)
	}
}

func TestLocalRangeBadTimezone(t *testing.T) {
	b := details()
	b.Timezone = "Mars/Olympus"
	start, _ := localRange(b)
	if !strings.Contains(start, "13:00 UTC") {
		t.Errorf("expected UTC fallback, got %q", start)
	}
}
