package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nayeem-rahman/slotbook/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

type TeamSubscription struct {
	TeamID               int64
	Status               string
	Seats                int64
	BillingFrequency     string
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	UpdatedAt            time.Time
}

func (r *Repository) UpsertTeamSubscription(ctx context.Context, tx pgx.Tx, s TeamSubscription) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO team_subscriptions (team_id, status, seats, billing_frequency, stripe_customer_id, stripe_subscription_id, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (team_id)
		DO UPDATE SET status = EXCLUDED.status,
		              seats = EXCLUDED.seats,
		              billing_frequency = EXCLUDED.billing_frequency,
		              stripe_customer_id = EXCLUDED.stripe_customer_id,
		              stripe_subscription_id = EXCLUDED.stripe_subscription_id,
		              current_period_start = EXCLUDED.current_period_start,
		              current_period_end = EXCLUDED.current_period_end,
		              updated_at = now()
	`, s.TeamID, s.Status, s.Seats, nullIfEmpty(s.BillingFrequency), nullIfEmpty(s.StripeCustomerID), nullIfEmpty(s.StripeSubscriptionID), s.CurrentPeriodStart, s.CurrentPeriodEnd)
	return err
}

func (r *Repository) GetTeamSubscription(ctx context.Context, teamID int64) (TeamSubscription, error) {
	var s TeamSubscription
	var cps *time.Time
	var cpe *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT team_id, status, seats, COALESCE(billing_frequency, ''),
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       current_period_start, current_period_end, updated_at
		FROM team_subscriptions
		WHERE team_id = $1
	`, teamID).Scan(&s.TeamID, &s.Status, &s.Seats, &s.BillingFrequency, &s.StripeCustomerID, &s.StripeSubscriptionID, &cps, &cpe, &s.UpdatedAt)
	if err != nil {
		return TeamSubscription{}, err
	}
	s.CurrentPeriodStart = cps
	s.CurrentPeriodEnd = cpe
	return s, nil
}

func (r *Repository) GetTeamSubscriptionForUpdate(ctx context.Context, tx pgx.Tx, teamID int64) (TeamSubscription, bool, error) {
	var s TeamSubscription
	var cps *time.Time
	var cpe *time.Time
	err := tx.QueryRow(ctx, `
		SELECT team_id, status, seats, COALESCE(billing_frequency, ''),
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       current_period_start, current_period_end, updated_at
		FROM team_subscriptions
		WHERE team_id = $1
		FOR UPDATE
	`, teamID).Scan(&s.TeamID, &s.Status, &s.Seats, &s.BillingFrequency, &s.StripeCustomerID, &s.StripeSubscriptionID, &cps, &cpe, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TeamSubscription{}, false, nil
		}
		return TeamSubscription{}, false, err
	}
	s.CurrentPeriodStart = cps
	s.CurrentPeriodEnd = cpe
	return s, true, nil
}

func (r *Repository) ListStripeSubscriptionsForReconcile(ctx context.Context, limit int) ([]TeamSubscription, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT team_id, status, seats, COALESCE(billing_frequency, ''),
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       current_period_start, current_period_end, updated_at
		FROM team_subscriptions
		WHERE stripe_subscription_id IS NOT NULL AND stripe_subscription_id <> ''
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamSubscription
	for rows.Next() {
		var s TeamSubscription
		var cps *time.Time
		var cpe *time.Time
		if err := rows.Scan(&s.TeamID, &s.Status, &s.Seats, &s.BillingFrequency, &s.StripeCustomerID, &s.StripeSubscriptionID, &cps, &cpe, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.CurrentPeriodStart = cps
		s.CurrentPeriodEnd = cpe
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type CheckoutSession struct {
	StripeSessionID      string
	TeamID               int64
	Seats                int64
	BillingFrequency     string
	Status               string
	StripeCustomerID     string
	StripeSubscriptionID string
	URL                  string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
	ExpiredAt            *time.Time
}

func (r *Repository) UpsertCheckoutSession(ctx context.Context, tx pgx.Tx, s CheckoutSession) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO checkout_sessions (stripe_session_id, team_id, seats, billing_frequency, status, url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stripe_session_id)
		DO UPDATE SET team_id = EXCLUDED.team_id,
		              seats = EXCLUDED.seats,
		              billing_frequency = EXCLUDED.billing_frequency,
		              status = EXCLUDED.status,
		              url = EXCLUDED.url,
		              updated_at = now()
	`, s.StripeSessionID, s.TeamID, s.Seats, nullIfEmpty(s.BillingFrequency), s.Status, nullIfEmpty(s.URL))
	return err
}

func (r *Repository) MarkCheckoutSessionCompleted(ctx context.Context, tx pgx.Tx, stripeSessionID string, completedAt time.Time, stripeCustomerID, stripeSubscriptionID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE checkout_sessions
		SET status = 'completed',
		    stripe_customer_id = $3,
		    stripe_subscription_id = $4,
		    completed_at = $2,
		    updated_at = now()
		WHERE stripe_session_id = $1
	`, stripeSessionID, completedAt, nullIfEmpty(stripeCustomerID), nullIfEmpty(stripeSubscriptionID))
	return err
}

func (r *Repository) MarkCheckoutSessionExpired(ctx context.Context, tx pgx.Tx, stripeSessionID string, expiredAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE checkout_sessions
		SET status = 'expired',
		    expired_at = $2,
		    updated_at = now()
		WHERE stripe_session_id = $1 AND status <> 'completed'
	`, stripeSessionID, expiredAt)
	return err
}

func (r *Repository) GetCheckoutSession(ctx context.Context, stripeSessionID string) (CheckoutSession, error) {
	var s CheckoutSession
	var completedAt *time.Time
	var expiredAt *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT stripe_session_id, team_id, seats, COALESCE(billing_frequency, ''), status,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       COALESCE(url, ''), created_at, updated_at, completed_at, expired_at
		FROM checkout_sessions
		WHERE stripe_session_id = $1
	`, stripeSessionID).Scan(
		&s.StripeSessionID,
		&s.TeamID,
		&s.Seats,
		&s.BillingFrequency,
		&s.Status,
		&s.StripeCustomerID,
		&s.StripeSubscriptionID,
		&s.URL,
		&s.CreatedAt,
		&s.UpdatedAt,
		&completedAt,
		&expiredAt,
	)
	if err != nil {
		return CheckoutSession{}, err
	}
	s.CompletedAt = completedAt
	s.ExpiredAt = expiredAt
	return s, nil
}

type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
}

var ErrDuplicateProviderEvent = errors.New("duplicate provider event")

// InsertProviderEvent records a webhook delivery; a replayed event id returns
// ErrDuplicateProviderEvent so callers can acknowledge without reprocessing.
func (r *Repository) InsertProviderEvent(ctx context.Context, tx pgx.Tx, evt ProviderEvent) error {
	var payload any
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO provider_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, evt.Provider, evt.ProviderEventID, evt.EventType, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateProviderEvent
	}
	return nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
