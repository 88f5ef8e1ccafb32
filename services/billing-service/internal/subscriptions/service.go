package subscriptions

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/outbox"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/storage"
)

// Service encapsulates team subscription state transitions and the side
// effects (outbox events). Keeping this out of HTTP handlers makes it reusable
// for webhook + reconciliation flows.
type Service struct {
	repo       *storage.Repository
	outboxRepo *outbox.Repository
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository) *Service {
	return &Service{repo: repo, outboxRepo: outboxRepo}
}

func (s *Service) ApplyActivated(ctx context.Context, tx pgx.Tx, teamID int64, seats int64, frequency string, activatedAt time.Time, stripeCustomerID, stripeSubscriptionID string, periodStart, periodEnd *time.Time) error {
	existing, ok, err := s.repo.GetTeamSubscriptionForUpdate(ctx, tx, teamID)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertTeamSubscription(ctx, tx, storage.TeamSubscription{
		TeamID:               teamID,
		Status:               "active",
		Seats:                seats,
		BillingFrequency:     frequency,
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
		CurrentPeriodStart:   periodStart,
		CurrentPeriodEnd:     periodEnd,
	}); err != nil {
		return err
	}

	// Only emit when the effective state changes. Provider ID updates alone
	// shouldn't fan out.
	if ok && existing.Status == "active" && existing.Seats == seats {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"team_id":           teamID,
		"seats":             seats,
		"billing_frequency": frequency,
		"activated_at":      activatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "team_subscription",
		AggregateID:   formatTeamID(teamID),
		EventType:     "billing.team.subscription.activated.v1",
		Payload:       payload,
	})
}

func (s *Service) ApplyCanceled(ctx context.Context, tx pgx.Tx, teamID int64, canceledAt time.Time, stripeCustomerID, stripeSubscriptionID string, periodStart, periodEnd *time.Time) error {
	existing, ok, err := s.repo.GetTeamSubscriptionForUpdate(ctx, tx, teamID)
	if err != nil {
		return err
	}

	seats := int64(0)
	frequency := ""
	if ok {
		seats = existing.Seats
		frequency = existing.BillingFrequency
	}
	if err := s.repo.UpsertTeamSubscription(ctx, tx, storage.TeamSubscription{
		TeamID:               teamID,
		Status:               "cancelled",
		Seats:                seats,
		BillingFrequency:     frequency,
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
		CurrentPeriodStart:   periodStart,
		CurrentPeriodEnd:     periodEnd,
	}); err != nil {
		return err
	}

	if ok && existing.Status == "cancelled" {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"team_id":     teamID,
		"canceled_at": canceledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "team_subscription",
		AggregateID:   formatTeamID(teamID),
		EventType:     "billing.team.subscription.cancelled.v1",
		Payload:       payload,
	})
}

func formatTeamID(teamID int64) string {
	return strconv.FormatInt(teamID, 10)
}
