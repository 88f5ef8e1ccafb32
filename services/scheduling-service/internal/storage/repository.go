package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nayeem-rahman/slotbook/eventtype"
	"github.com/nayeem-rahman/slotbook/libs/db"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/availability"
)

var ErrEventNotFound = errors.New("event type not found")

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// EventRecord is the stored event type plus the internal ids the schedule
// computation needs.
type EventRecord struct {
	ID     string
	UserID string
	Event  eventtype.EventType
}

func (r *Repository) GetEventType(ctx context.Context, username, slug string) (EventRecord, error) {
	var rec EventRecord
	var schedulingType *string
	var durations []int32
	err := r.pool.QueryRow(ctx, `
		SELECT et.id, et.user_id, et.title, et.slug, et.length_minutes, et.durations,
			et.scheduling_type, et.price, COALESCE(et.currency, ''), et.recurring_count,
			et.requires_confirmation, et.confirmation_threshold_minutes,
			et.seats_per_time_slot, et.slot_interval_minutes
		FROM event_types et
		JOIN users u ON u.id = et.user_id
		WHERE u.username = $1 AND et.slug = $2 AND et.hidden = false
	`, username, slug).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Event.Title,
		&rec.Event.Slug,
		&rec.Event.Length,
		&durations,
		&schedulingType,
		&rec.Event.Price,
		&rec.Event.Currency,
		&rec.Event.RecurringCount,
		&rec.Event.RequiresConfirmation,
		&rec.Event.ConfirmationThresholdMinutes,
		&rec.Event.SeatsPerTimeSlot,
		&rec.Event.SlotInterval,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EventRecord{}, ErrEventNotFound
		}
		return EventRecord{}, err
	}
	for _, d := range durations {
		rec.Event.Durations = append(rec.Event.Durations, int(d))
	}
	if schedulingType != nil {
		rec.Event.SchedulingType = eventtype.SchedulingType(*schedulingType)
	}

	hosts, err := r.listHosts(ctx, rec.ID)
	if err != nil {
		return EventRecord{}, err
	}
	rec.Event.Hosts = hosts
	return rec, nil
}

func (r *Repository) listHosts(ctx context.Context, eventTypeID string) ([]eventtype.Host, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.username, COALESCE(u.name, '')
		FROM event_type_hosts h
		JOIN users u ON u.id = h.user_id
		WHERE h.event_type_id = $1
		ORDER BY u.username
	`, eventTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hosts []eventtype.Host
	for rows.Next() {
		var h eventtype.Host
		if err := rows.Scan(&h.Username, &h.Name); err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// ListAvailabilityRules returns the owner's weekly working windows.
func (r *Repository) ListAvailabilityRules(ctx context.Context, userID string) ([]availability.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, start_minute, end_minute
		FROM availability_rules
		WHERE user_id = $1
		ORDER BY weekday, start_minute
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []availability.Rule
	for rows.Next() {
		var weekday int
		var rule availability.Rule
		if err := rows.Scan(&weekday, &rule.StartMinute, &rule.EndMinute); err != nil {
			return nil, err
		}
		rule.Weekday = time.Weekday(weekday)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ListBookedIntervals returns non-cancelled bookings of the host in
// [from, to). Cancelled bookings do not block slots.
func (r *Repository) ListBookedIntervals(ctx context.Context, userID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM bookings
		WHERE host_user_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var busy []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		busy = append(busy, iv)
	}
	return busy, rows.Err()
}
