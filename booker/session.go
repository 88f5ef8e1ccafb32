package booker

import (
	"context"
	"sync"
	"time"

	"github.com/nayeem-rahman/slotbook/eventtype"
)

// Config wires a Session to its data sources.
type Config struct {
	Username  string
	EventSlug string

	// Month is the initial browsing month (2006-01). Empty means the current
	// month in Timezone.
	Month string
	// Timezone is an IANA name. Empty means UTC.
	Timezone string

	Schedules ScheduleSource
	Events    EventSource
	Bookings  BookingCreator

	// ScheduleTTL controls how long a fetched month stays fresh in the cache.
	ScheduleTTL time.Duration
}

// Session drives one booking flow for one username/event pair. All state the
// UI renders from is either held here or derived on demand; the flow state
// itself is always derived (see DeriveState), never stored.
//
// Session is safe for concurrent use, but models a cooperative UI loop: the
// only blocking methods are the ones that fetch.
type Session struct {
	mu sync.Mutex

	username  string
	eventSlug string

	timezone      string
	browsingMonth string // 2006-01
	selectedDate  string // 2006-01-02, "" when none
	selectedTime  time.Time
	timeSelected  bool

	event        *eventtype.EventType
	eventLoading bool
	eventErr     error

	schedule    *Schedule
	scheduleErr error

	cache    *ScheduleCache
	events   EventSource
	bookings BookingCreator
}

func NewSession(cfg Config) *Session {
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	month := cfg.Month
	if month == "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			loc = time.UTC
		}
		month = time.Now().In(loc).Format("2006-01")
	}
	return &Session{
		username:      cfg.Username,
		eventSlug:     cfg.EventSlug,
		timezone:      tz,
		browsingMonth: month,
		cache:         NewScheduleCache(cfg.Schedules, cfg.ScheduleTTL),
		events:        cfg.Events,
		bookings:      cfg.Bookings,
	}
}

// Key is the schedule cache key for what the session is currently browsing.
func (s *Session) Key() ScheduleKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyLocked()
}

func (s *Session) keyLocked() ScheduleKey {
	return ScheduleKey{
		Username:  s.username,
		EventSlug: s.eventSlug,
		Month:     s.browsingMonth,
		Timezone:  s.timezone,
	}
}

// LoadEvent fetches the event descriptor. The flow reports StateLoading until
// it settles.
func (s *Session) LoadEvent(ctx context.Context) error {
	s.mu.Lock()
	s.eventLoading = true
	s.mu.Unlock()

	et, err := s.events.FetchEvent(ctx, s.username, s.eventSlug)

	s.mu.Lock()
	s.eventLoading = false
	s.eventErr = err
	if err == nil {
		s.event = et
	}
	s.mu.Unlock()
	return err
}

// RefreshSchedule fetches (or re-reads from cache) the schedule for the
// current key and applies it. If the session moved to a different key while
// the fetch was in flight, the late result is not applied; it stays cached
// under its own key for when the user browses back.
func (s *Session) RefreshSchedule(ctx context.Context) error {
	key := s.Key()

	sched, err := s.cache.Get(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if key != s.keyLocked() {
		// Superseded: the user changed month or timezone mid-fetch.
		return nil
	}
	if sched != nil {
		s.schedule = sched
	}
	s.scheduleErr = err
	return err
}

// SelectMonth switches the browsing month and resets the date and time
// selection, moving the flow back toward date selection.
func (s *Session) SelectMonth(month string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if month == s.browsingMonth {
		return
	}
	s.browsingMonth = month
	s.selectedDate = ""
	s.clearTimeLocked()
	s.schedule = nil
	s.scheduleErr = nil
	// Show cached data for the new key immediately if we have it.
	if sched, ok := s.cache.Cached(s.keyLocked()); ok {
		s.schedule = sched
	}
}

// SelectTimezone switches the display timezone. Slot times change with it, so
// any chosen time is reset; the selected date is kept.
func (s *Session) SelectTimezone(tz string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tz == "" || tz == s.timezone {
		return
	}
	s.timezone = tz
	s.clearTimeLocked()
	s.schedule = nil
	s.scheduleErr = nil
	if sched, ok := s.cache.Cached(s.keyLocked()); ok {
		s.schedule = sched
	}
}

// SelectDate picks a day; any chosen time is reset.
func (s *Session) SelectDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedDate = date
	s.clearTimeLocked()
}

// SelectTime picks a slot start time, moving the flow to booking.
func (s *Session) SelectTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTime = t
	s.timeSelected = true
}

// CancelBooking abandons the booking form and returns to time selection.
// Nothing is sent to the booking service.
func (s *Session) CancelBooking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearTimeLocked()
}

func (s *Session) clearTimeLocked() {
	s.selectedTime = time.Time{}
	s.timeSelected = false
}

// State derives the current flow state from event-load status, the slot list
// of the selected date, and whether a time is chosen.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := SlotsForDate(s.schedule, s.selectedDate)
	return DeriveState(s.eventLoading, len(slots), s.timeSelected)
}

// NonEmptyDays projects the dates of the current schedule that have slots.
func (s *Session) NonEmptyDays() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NonEmptyDays(s.schedule)
}

// Slots projects the slot list for the selected date.
func (s *Session) Slots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotsForDate(s.schedule, s.selectedDate)
}

// Event returns the loaded descriptor, or nil while loading/failed.
func (s *Session) Event() *eventtype.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event
}

// SelectedDate returns the picked day, empty when none.
func (s *Session) SelectedDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedDate
}

// SelectedTime returns the chosen slot time and whether one is chosen.
func (s *Session) SelectedTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedTime, s.timeSelected
}

// ScheduleErr reports the last fetch error, for an error indicator. Previously
// fetched data stays visible regardless.
func (s *Session) ScheduleErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleErr
}

// SubmitBooking sends the reservation request for the chosen slot. The flow
// must be in the booking state and the form complete.
func (s *Session) SubmitBooking(ctx context.Context, form Form) (BookingConfirmation, error) {
	if err := form.validate(); err != nil {
		return BookingConfirmation{}, err
	}

	s.mu.Lock()
	if !s.timeSelected {
		s.mu.Unlock()
		return BookingConfirmation{}, ErrNoTimeSelected
	}
	req := BookingRequest{
		Username:  s.username,
		EventSlug: s.eventSlug,
		Start:     s.selectedTime,
		Timezone:  s.timezone,
		Name:      form.Name,
		Email:     form.Email,
		Notes:     form.Notes,
		Guests:    form.Guests,
	}
	s.mu.Unlock()

	return s.bookings.CreateBooking(ctx, req)
}
