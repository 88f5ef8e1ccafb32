package booker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nayeem-rahman/slotbook/eventtype"
)

type fakeEvents struct {
	et  *eventtype.EventType
	err error
}

func (f *fakeEvents) FetchEvent(_ context.Context, _, _ string) (*eventtype.EventType, error) {
	return f.et, f.err
}

type fakeBookings struct {
	mu   sync.Mutex
	last BookingRequest
	conf BookingConfirmation
	err  error
}

func (f *fakeBookings) CreateBooking(_ context.Context, req BookingRequest) (BookingConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	return f.conf, f.err
}

func newTestSession(src ScheduleSource) *Session {
	return NewSession(Config{
		Username:  "ana",
		EventSlug: "30min",
		Month:     "2026-09",
		Timezone:  "UTC",
		Schedules: src,
		Events:    &fakeEvents{et: &eventtype.EventType{Title: "Intro", Slug: "30min", Length: 30}},
		Bookings:  &fakeBookings{conf: BookingConfirmation{UID: "abc", Status: "accepted"}},
	})
}

func TestSession_FlowStates(t *testing.T) {
	src := &fakeSource{results: map[ScheduleKey]*Schedule{
		key("2026-09"): scheduleWithDay("2026-09-14"),
	}}
	s := newTestSession(src)
	ctx := context.Background()

	if err := s.LoadEvent(ctx); err != nil {
		t.Fatalf("load event: %v", err)
	}
	if err := s.RefreshSchedule(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// No date picked yet: the selected-date slot list is empty.
	if got := s.State(); got != StateSelectingDate {
		t.Fatalf("expected selecting_date, got %s", got)
	}

	s.SelectDate("2026-09-14")
	if got := s.State(); got != StateSelectingTime {
		t.Fatalf("expected selecting_time, got %s", got)
	}

	s.SelectTime(s.Slots()[0].Time)
	if got := s.State(); got != StateBooking {
		t.Fatalf("expected booking, got %s", got)
	}

	s.CancelBooking()
	if got := s.State(); got != StateSelectingTime {
		t.Fatalf("cancel must return to selecting_time, got %s", got)
	}
}

func TestSession_MonthChangeClearsSelection(t *testing.T) {
	src := &fakeSource{results: map[ScheduleKey]*Schedule{
		key("2026-09"): scheduleWithDay("2026-09-14"),
	}}
	s := newTestSession(src)
	ctx := context.Background()

	if err := s.RefreshSchedule(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	s.SelectDate("2026-09-14")
	s.SelectTime(time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC))

	s.SelectMonth("2026-10")

	if got := s.SelectedDate(); got != "" {
		t.Fatalf("month change must clear the selected date, got %q", got)
	}
	if _, selected := s.SelectedTime(); selected {
		t.Fatal("month change must clear the chosen time")
	}
	if got := s.State(); got != StateSelectingDate {
		t.Fatalf("expected selecting_date after month change, got %s", got)
	}
}

func TestSession_DateChangeClearsTime(t *testing.T) {
	src := &fakeSource{results: map[ScheduleKey]*Schedule{
		key("2026-09"): {Days: map[string][]Slot{
			"2026-09-14": {slotAt(9)},
			"2026-09-15": {slotAt(10)},
		}},
	}}
	s := newTestSession(src)
	if err := s.RefreshSchedule(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	s.SelectDate("2026-09-14")
	s.SelectTime(slotAt(9).Time)
	s.SelectDate("2026-09-15")

	if _, selected := s.SelectedTime(); selected {
		t.Fatal("picking a new date must clear the chosen time")
	}
	if got := s.State(); got != StateSelectingTime {
		t.Fatalf("expected selecting_time, got %s", got)
	}
}

func TestSession_LateResultForSupersededKeyIsIgnored(t *testing.T) {
	block := make(chan struct{})
	src := &fakeSource{
		results: map[ScheduleKey]*Schedule{
			key("2026-09"): scheduleWithDay("2026-09-14"),
			key("2026-10"): scheduleWithDay("2026-10-05"),
		},
		block: block,
	}
	s := newTestSession(src)

	refreshed := make(chan error, 1)
	go func() { refreshed <- s.RefreshSchedule(context.Background()) }()

	// The user moves on to October while September is still in flight.
	time.Sleep(20 * time.Millisecond)
	s.SelectMonth("2026-10")
	close(block)
	if err := <-refreshed; err != nil {
		t.Fatalf("stale refresh: %v", err)
	}

	// The late September result must not show up under the October key.
	if days := s.NonEmptyDays(); len(days) != 0 {
		t.Fatalf("superseded result leaked into the session: %v", days)
	}

	// A refresh for the current key loads October data.
	if err := s.RefreshSchedule(context.Background()); err != nil {
		t.Fatalf("refresh current: %v", err)
	}
	days := s.NonEmptyDays()
	if len(days) != 1 || days[0] != "2026-10-05" {
		t.Fatalf("expected October schedule, got %v", days)
	}
}

func TestSession_SubmitBooking(t *testing.T) {
	src := &fakeSource{results: map[ScheduleKey]*Schedule{
		key("2026-09"): scheduleWithDay("2026-09-14"),
	}}
	bookings := &fakeBookings{conf: BookingConfirmation{UID: "bk_1", Status: "accepted"}}
	s := NewSession(Config{
		Username:  "ana",
		EventSlug: "30min",
		Month:     "2026-09",
		Timezone:  "UTC",
		Schedules: src,
		Events:    &fakeEvents{et: &eventtype.EventType{Length: 30}},
		Bookings:  bookings,
	})
	ctx := context.Background()

	if _, err := s.SubmitBooking(ctx, Form{Name: "Bea", Email: "bea@example.com"}); err != ErrNoTimeSelected {
		t.Fatalf("expected ErrNoTimeSelected, got %v", err)
	}

	if err := s.RefreshSchedule(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	s.SelectDate("2026-09-14")
	start := s.Slots()[0].Time
	s.SelectTime(start)

	if _, err := s.SubmitBooking(ctx, Form{Name: "", Email: "bea@example.com"}); err != ErrIncompleteForm {
		t.Fatalf("expected ErrIncompleteForm, got %v", err)
	}

	conf, err := s.SubmitBooking(ctx, Form{Name: "Bea", Email: "bea@example.com", Guests: []string{"cai@example.com"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if conf.UID != "bk_1" {
		t.Fatalf("unexpected confirmation: %+v", conf)
	}

	bookings.mu.Lock()
	defer bookings.mu.Unlock()
	if bookings.last.Username != "ana" || bookings.last.EventSlug != "30min" {
		t.Fatalf("request missing event identity: %+v", bookings.last)
	}
	if !bookings.last.Start.Equal(start) {
		t.Fatalf("request start %v, want %v", bookings.last.Start, start)
	}
	if len(bookings.last.Guests) != 1 {
		t.Fatalf("guests not forwarded: %+v", bookings.last.Guests)
	}
}
