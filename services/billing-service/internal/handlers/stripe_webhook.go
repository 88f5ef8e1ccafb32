package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/storage"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeWebhook handles Stripe webhooks; signature verification is the auth.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.stripeWebhookSecret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MiB hard cap
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.stripeWebhookSecret, h.stripeWebhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	occurredAt := time.Unix(evt.Created, 0).UTC()
	evtType := string(evt.Type)
	h.logger.Info("billing provider event received",
		"provider", "stripe",
		"provider_event_id", evt.ID,
		"event_type", evtType,
		"occurred_at", occurredAt.Format(time.RFC3339),
	)

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	// Idempotency: ignore replayed Stripe events.
	if err := h.repo.InsertProviderEvent(r.Context(), tx, storage.ProviderEvent{
		Provider:        "stripe",
		ProviderEventID: evt.ID,
		EventType:       evtType,
		Payload:         body,
	}); err != nil {
		if errors.Is(err, storage.ErrDuplicateProviderEvent) {
			h.logger.Info("billing provider event duplicate ignored", "provider", "stripe", "provider_event_id", evt.ID, "event_type", evtType)
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			_ = tx.Commit(r.Context())
			return
		}
		http.Error(w, "failed to record provider event", http.StatusInternalServerError)
		return
	}

	switch evtType {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			h.logger.Error("stripe: invalid checkout session payload", "err", err)
			break
		}
		teamID, ok := teamIDFromMetadata(session.Metadata)
		if !ok {
			h.logger.Warn("stripe: missing teamId metadata on checkout session")
			break
		}

		customerID := ""
		if session.Customer != nil {
			customerID = session.Customer.ID
		}
		subscriptionID := ""
		if session.Subscription != nil {
			subscriptionID = session.Subscription.ID
		}
		_ = h.repo.MarkCheckoutSessionCompleted(r.Context(), tx, session.ID, occurredAt, customerID, subscriptionID)

		seats, frequency := h.sessionPurchaseDetails(r.Context(), session.ID)
		if err := h.subSvc.ApplyActivated(r.Context(), tx, teamID, seats, frequency, occurredAt, customerID, subscriptionID, nil, nil); err != nil {
			http.Error(w, "failed to apply activation", http.StatusInternalServerError)
			return
		}

	case "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			h.logger.Error("stripe: invalid checkout session payload", "err", err)
			break
		}
		_ = h.repo.MarkCheckoutSessionExpired(r.Context(), tx, session.ID, occurredAt)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			h.logger.Error("stripe: invalid subscription payload", "err", err)
			break
		}
		teamID, ok := teamIDFromMetadata(sub.Metadata)
		if !ok {
			h.logger.Warn("stripe: missing teamId metadata on subscription")
			break
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		cps, cpe := periodBounds(sub)
		if err := h.subSvc.ApplyCanceled(r.Context(), tx, teamID, occurredAt, customerID, sub.ID, cps, cpe); err != nil {
			http.Error(w, "failed to apply cancellation", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(r.Context()); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func teamIDFromMetadata(metadata map[string]string) (int64, bool) {
	raw := strings.TrimSpace(metadata["teamId"])
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sessionPurchaseDetails recovers the seat count and frequency recorded at
// checkout time; Stripe does not echo them back in the completed event.
func (h *Handler) sessionPurchaseDetails(ctx context.Context, sessionID string) (int64, string) {
	sess, err := h.repo.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return 0, ""
	}
	return sess.Seats, sess.BillingFrequency
}

func periodBounds(sub stripe.Subscription) (*time.Time, *time.Time) {
	var cps, cpe *time.Time
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		cps = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		cpe = &t
	}
	return cps, cpe
}
