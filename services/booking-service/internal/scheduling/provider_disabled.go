//go:build !protogen

package scheduling

import (
	"context"
	"time"
)

// DaySlots is the set of open slot starts the scheduling service computed for
// one local date.
type DaySlots struct {
	StartsUTC []time.Time
}

type Provider interface {
	GetDaySlots(ctx context.Context, username, eventSlug, date, timezone string) (DaySlots, error)
}

// NewProvider returns nil in builds without generated gRPC stubs; the caller
// falls back to the database overlap constraint.
func NewProvider(_ string) (Provider, error) {
	return nil, nil
}
