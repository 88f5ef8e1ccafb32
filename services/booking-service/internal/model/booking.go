package model

import "time"

// Booking statuses. A pending booking waits for host confirmation and still
// blocks its slot.
const (
	StatusAccepted  = "accepted"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

type Booking struct {
	UID           string
	HostUserID    string
	HostUsername  string
	EventSlug     string
	AttendeeName  string
	AttendeeEmail string
	Notes         string
	Guests        []string
	Timezone      string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	CancelledAt   *time.Time
	CancelReason  string
	CreatedAt     time.Time
}
