package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/outbox"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/storage"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/subscriptions"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/teams"
)

type Handler struct {
	repo                   *storage.Repository
	outboxRepo             *outbox.Repository
	subSvc                 *subscriptions.Service
	teamsSvc               *teams.Service
	logger                 *slog.Logger
	stripeWebhookSecret    string
	stripeWebhookTolerance time.Duration
}

type Config struct {
	StripeWebhookSecret           string
	StripeWebhookToleranceSeconds int
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository, teamsSvc *teams.Service, logger *slog.Logger, cfg Config) *Handler {
	tolSeconds := cfg.StripeWebhookToleranceSeconds
	if tolSeconds <= 0 {
		tolSeconds = 300
	}
	return &Handler{
		repo:                   repo,
		outboxRepo:             outboxRepo,
		subSvc:                 subscriptions.New(repo, outboxRepo),
		teamsSvc:               teamsSvc,
		logger:                 logger,
		stripeWebhookSecret:    strings.TrimSpace(cfg.StripeWebhookSecret),
		stripeWebhookTolerance: time.Duration(tolSeconds) * time.Second,
	}
}

type checkoutRequest struct {
	TeamID           int64  `json:"team_id"`
	BillingFrequency string `json:"billing_frequency"`
	Seats            int64  `json:"seats"`
	Email            string `json:"email"`
}

// Checkout creates a Stripe checkout session for a team subscription purchase.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.teamsSvc == nil || !h.teamsSvc.Configured() {
		http.Error(w, "stripe checkout not configured (STRIPE_SECRET_KEY missing)", http.StatusNotImplemented)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.TeamID <= 0 {
		http.Error(w, "team_id is required", http.StatusBadRequest)
		return
	}
	freq, ok := teams.ParseFrequency(req.BillingFrequency)
	if !ok {
		http.Error(w, "billing_frequency must be monthly or yearly", http.StatusBadRequest)
		return
	}

	sess, err := h.teamsSvc.PurchaseTeamSubscription(req.TeamID, freq, req.Seats, strings.TrimSpace(req.Email))
	if err != nil {
		h.logger.Error("stripe checkout session create failed", "err", err, "team_id", req.TeamID)
		if errors.Is(err, teams.ErrExternalService) {
			http.Error(w, "failed to create checkout session", http.StatusBadGateway)
			return
		}
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()
	if err := h.repo.UpsertCheckoutSession(r.Context(), tx, storage.CheckoutSession{
		StripeSessionID:  sess.ID,
		TeamID:           req.TeamID,
		Seats:            req.Seats,
		BillingFrequency: string(freq),
		Status:           "created",
		URL:              sess.URL,
	}); err != nil {
		http.Error(w, "failed to persist checkout session", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"url":        sess.URL,
	})
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	teamID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("team_id")), 10, 64)
	if err != nil || teamID <= 0 {
		http.Error(w, "team_id is required", http.StatusBadRequest)
		return
	}

	sub, err := h.repo.GetTeamSubscription(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, map[string]any{
				"team_id": teamID,
				"status":  "none",
			})
			return
		}
		http.Error(w, "failed to load subscription", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"team_id":           sub.TeamID,
		"status":            sub.Status,
		"seats":             sub.Seats,
		"billing_frequency": sub.BillingFrequency,
		"updated_at":        sub.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if sub.CurrentPeriodEnd != nil {
		resp["current_period_end"] = sub.CurrentPeriodEnd.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CheckoutSessionStatus is intentionally public: Stripe redirects the customer
// back without credentials. It returns non-sensitive state only.
func (h *Handler) CheckoutSessionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	sess, err := h.repo.GetCheckoutSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"session_id": sess.StripeSessionID,
		"status":     sess.Status,
		"updated_at": sess.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if sess.CompletedAt != nil {
		resp["completed_at"] = sess.CompletedAt.UTC().Format(time.RFC3339)
	}
	if sess.ExpiredAt != nil {
		resp["expired_at"] = sess.ExpiredAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
