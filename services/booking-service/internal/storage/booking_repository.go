package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nayeem-rahman/slotbook/libs/db"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// BookableEvent is the slice of an event type the booking path needs.
type BookableEvent struct {
	EventTypeID                  string
	HostUserID                   string
	LengthMinutes                int
	RequiresConfirmation         bool
	ConfirmationThresholdMinutes int
}

func (r *BookingRepository) GetBookableEvent(ctx context.Context, username, slug string) (BookableEvent, error) {
	var ev BookableEvent
	err := r.pool.QueryRow(ctx, `
		SELECT et.id, et.user_id, et.length_minutes, et.requires_confirmation, et.confirmation_threshold_minutes
		FROM event_types et
		JOIN users u ON u.id = et.user_id
		WHERE u.username = $1 AND et.slug = $2 AND et.hidden = false
	`, username, slug).Scan(
		&ev.EventTypeID,
		&ev.HostUserID,
		&ev.LengthMinutes,
		&ev.RequiresConfirmation,
		&ev.ConfirmationThresholdMinutes,
	)
	if err != nil {
		return BookableEvent{}, err
	}
	return ev, nil
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) (string, error) {
	uid := uuid.NewString()
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings
			(uid, host_user_id, event_slug, attendee_name, attendee_email, notes, guests,
			 timezone, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uid, b.HostUserID, b.EventSlug, b.AttendeeName, b.AttendeeEmail, b.Notes, b.Guests,
		b.Timezone, b.StartTime, b.EndTime, b.Status)
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (r *BookingRepository) GetByUIDForUpdate(ctx context.Context, tx pgx.Tx, uid string) (model.Booking, error) {
	var b model.Booking
	var cancelledAt *time.Time
	err := tx.QueryRow(ctx, `
		SELECT b.uid, b.host_user_id, u.username, b.event_slug, b.attendee_name, b.attendee_email,
			b.notes, b.guests, b.timezone, b.start_time, b.end_time, b.status,
			b.cancelled_at, COALESCE(b.cancellation_reason, ''), b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.host_user_id
		WHERE b.uid = $1
		FOR UPDATE OF b
	`, uid).Scan(
		&b.UID,
		&b.HostUserID,
		&b.HostUsername,
		&b.EventSlug,
		&b.AttendeeName,
		&b.AttendeeEmail,
		&b.Notes,
		&b.Guests,
		&b.Timezone,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&cancelledAt,
		&b.CancelReason,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.CancelledAt = cancelledAt
	return b, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, uid, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $2
		WHERE uid = $1
		RETURNING cancelled_at
	`, uid, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostUserID string, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT b.uid, b.host_user_id, u.username, b.event_slug, b.attendee_name, b.attendee_email,
			b.notes, b.guests, b.timezone, b.start_time, b.end_time, b.status,
			b.cancelled_at, COALESCE(b.cancellation_reason, ''), b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.host_user_id
		WHERE b.host_user_id = $1
		ORDER BY b.start_time DESC
		LIMIT $2
	`, hostUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		var cancelledAt *time.Time
		if err := rows.Scan(
			&b.UID,
			&b.HostUserID,
			&b.HostUsername,
			&b.EventSlug,
			&b.AttendeeName,
			&b.AttendeeEmail,
			&b.Notes,
			&b.Guests,
			&b.Timezone,
			&b.StartTime,
			&b.EndTime,
			&b.Status,
			&cancelledAt,
			&b.CancelReason,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.CancelledAt = cancelledAt
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

func (r *BookingRepository) GetUserID(ctx context.Context, username string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&id)
	return id, err
}

// IsConflict reports whether the error is the bookings overlap exclusion
// constraint or a unique violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
