// Package booker implements the client-side booking flow: a session that
// tracks what the user is looking at (month, date, time), a keyed schedule
// cache in front of the scheduling service, and the pure projections the UI
// renders from.
package booker

// State is the derived phase of the booking flow. It is never stored; it is
// recomputed from the underlying data every time, so the UI can never disagree
// with what has actually been loaded and selected.
type State string

const (
	StateLoading       State = "loading"
	StateSelectingDate State = "selecting_date"
	StateSelectingTime State = "selecting_time"
	StateBooking       State = "booking"
)

// DeriveState maps the flow inputs to exactly one state. Priority order:
// a loading event dominates everything, then an empty slot list, then a
// missing time selection.
func DeriveState(eventLoading bool, slotCount int, timeSelected bool) State {
	if eventLoading {
		return StateLoading
	}
	if slotCount == 0 {
		return StateSelectingDate
	}
	if !timeSelected {
		return StateSelectingTime
	}
	return StateBooking
}
