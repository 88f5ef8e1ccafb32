package booker

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Form carries the attendee-entered fields of the booking step.
type Form struct {
	Name   string
	Email  string
	Notes  string
	Guests []string
}

// BookingRequest is the reservation request sent to the booking service.
type BookingRequest struct {
	Username  string    `json:"username"`
	EventSlug string    `json:"event_slug"`
	Start     time.Time `json:"start"`
	Timezone  string    `json:"timezone"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Notes     string    `json:"notes,omitempty"`
	Guests    []string  `json:"guests,omitempty"`
}

// BookingConfirmation is what the booking service returns on success.
type BookingConfirmation struct {
	UID    string `json:"uid"`
	Status string `json:"status"`
}

// BookingCreator issues a reservation request against the booking service.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req BookingRequest) (BookingConfirmation, error)
}

var (
	// ErrNoTimeSelected is returned when a booking is submitted before the
	// flow reached the booking state.
	ErrNoTimeSelected = errors.New("no booking time selected")
	// ErrIncompleteForm is returned when required attendee fields are blank.
	ErrIncompleteForm = errors.New("attendee name and email are required")
)

func (f Form) validate() error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Email) == "" {
		return ErrIncompleteForm
	}
	return nil
}
