// Package eventtype defines the public descriptor of a bookable event and the
// formatting of its display badges.
package eventtype

// SchedulingType mirrors how a multi-host event assigns hosts.
type SchedulingType string

const (
	SchedulingRoundRobin SchedulingType = "round_robin"
	SchedulingCollective SchedulingType = "collective"
)

// Host is a user that takes part in the event.
type Host struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// EventType is the read-only descriptor served by the scheduling service and
// consumed by the booker for display. Optional fields are zero when the
// feature is not configured; consumers treat that as "not applicable".
type EventType struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`

	// Length is the default duration in minutes. Durations, when set, lists
	// the selectable durations and takes precedence for display.
	Length    int   `json:"length"`
	Durations []int `json:"durations,omitempty"`

	SchedulingType SchedulingType `json:"scheduling_type,omitempty"`

	// Price is in the currency's minor unit (cents); 0 means free.
	Price    int64  `json:"price"`
	Currency string `json:"currency,omitempty"`

	RecurringCount int `json:"recurring_count,omitempty"`

	RequiresConfirmation bool `json:"requires_confirmation"`
	// ConfirmationThresholdMinutes > 0 means confirmation is only required for
	// bookings closer than the threshold ("may require confirmation").
	ConfirmationThresholdMinutes int `json:"confirmation_threshold_minutes,omitempty"`

	SeatsPerTimeSlot int `json:"seats_per_time_slot,omitempty"`

	// SlotInterval is the step between offered start times in minutes.
	// 0 means the event length is used.
	SlotInterval int `json:"slot_interval,omitempty"`

	Hosts []Host `json:"hosts,omitempty"`
}

// DurationsForDisplay returns the configured durations, falling back to the
// single default length.
func (et EventType) DurationsForDisplay() []int {
	if len(et.Durations) > 0 {
		return et.Durations
	}
	return []int{et.Length}
}
