package email

import (
	"fmt"
	"strings"
	"time"
)

// BookingDetails carries the fields rendered into attendee-facing mail.
type BookingDetails struct {
	UID          string
	HostUsername string
	EventSlug    string
	AttendeeName string
	Timezone     string
	Start        time.Time
	End          time.Time
	Status       string
	CancelReason string
}

// ConfirmationMessage renders the subject and plain-text body for a freshly
// created booking. Pending bookings get request wording instead of a
// confirmation.
func ConfirmationMessage(b BookingDetails) (string, string) {
	start, end := localRange(b)

	var subject string
	var lead string
	if strings.EqualFold(b.Status, "pending") {
		subject = fmt.Sprintf("Booking request sent: %s with %s", b.EventSlug, b.HostUsername)
		lead = "Your booking request was sent and is awaiting confirmation from the host."
	} else {
		subject = fmt.Sprintf("Booking confirmed: %s with %s", b.EventSlug, b.HostUsername)
		lead = "Your booking is confirmed."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", greetingName(b.AttendeeName))
	sb.WriteString(lead)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Event: %s\n", b.EventSlug)
	fmt.Fprintf(&sb, "Host: %s\n", b.HostUsername)
	fmt.Fprintf(&sb, "When: %s to %s\n", start, end)
	fmt.Fprintf(&sb, "Reference: %s\n", b.UID)
	return subject, sb.String()
}

// CancellationMessage renders the subject and plain-text body for a cancelled
// booking.
func CancellationMessage(b BookingDetails) (string, string) {
	start, _ := localRange(b)

	subject := fmt.Sprintf("Booking cancelled: %s with %s", b.EventSlug, b.HostUsername)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", greetingName(b.AttendeeName))
	fmt.Fprintf(&sb, "Your booking %s scheduled for %s has been cancelled.\n", b.UID, start)
	if reason := strings.TrimSpace(b.CancelReason); reason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", reason)
	}
	return subject, sb.String()
}

func localRange(b BookingDetails) (string, string) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil || b.Timezone == "" {
		loc = time.UTC
	}
	const layout = "Mon, 02 Jan 2006 15:04 MST"
	return b.Start.In(loc).Format(layout), b.End.In(loc).Format(layout)
}

func greetingName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return name
}
