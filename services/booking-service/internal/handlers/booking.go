package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/model"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/outbox"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/scheduling"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/storage"
)

type BookingHandler struct {
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	scheduling scheduling.Provider
}

func NewBookingHandler(repo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger, schedulingProvider scheduling.Provider) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
		scheduling: schedulingProvider,
	}
}

type createBookingRequest struct {
	Username  string    `json:"username"`
	EventSlug string    `json:"event_slug"`
	Start     time.Time `json:"start"`
	Timezone  string    `json:"timezone"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Notes     string    `json:"notes"`
	Guests    []string  `json:"guests"`
}

type createBookingResponse struct {
	UID    string `json:"uid"`
	Status string `json:"status"`
}

type cancelBookingRequest struct {
	UID    string `json:"uid"`
	Reason string `json:"reason"`
}

type cancelBookingResponse struct {
	UID         string `json:"uid"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

type listBookingItem struct {
	UID           string   `json:"uid"`
	EventSlug     string   `json:"event_slug"`
	AttendeeName  string   `json:"attendee_name"`
	AttendeeEmail string   `json:"attendee_email"`
	Guests        []string `json:"guests,omitempty"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Status        string   `json:"status"`
	CancelledAt   string   `json:"cancelled_at,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.EventSlug = strings.TrimSpace(req.EventSlug)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	if req.Username == "" || req.EventSlug == "" || req.Name == "" || req.Email == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	if req.Start.IsZero() {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	if req.Start.Before(time.Now().UTC()) {
		http.Error(w, "start must be in the future", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	ev, err := h.repo.GetBookableEvent(ctx, req.Username, req.EventSlug)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load event", http.StatusInternalServerError)
		return
	}

	start := req.Start.UTC()
	end := start.Add(time.Duration(ev.LengthMinutes) * time.Minute)

	ok, err := h.validateStartAgainstSchedule(ctx, req.Username, req.EventSlug, req.Timezone, start)
	if err != nil {
		// Do not reject outright on a dependency failure; the client can retry.
		http.Error(w, "scheduling service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "requested time is not an open slot", http.StatusUnprocessableEntity)
		return
	}

	booking := &model.Booking{
		HostUserID:    ev.HostUserID,
		HostUsername:  req.Username,
		EventSlug:     req.EventSlug,
		AttendeeName:  req.Name,
		AttendeeEmail: req.Email,
		Notes:         strings.TrimSpace(req.Notes),
		Guests:        cleanGuests(req.Guests),
		Timezone:      req.Timezone,
		StartTime:     start,
		EndTime:       end,
		Status:        bookingStatus(ev, start),
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	uid, err := h.repo.Create(ctx, tx, booking)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"uid":            uid,
		"host_username":  booking.HostUsername,
		"event_slug":     booking.EventSlug,
		"attendee_name":  booking.AttendeeName,
		"attendee_email": booking.AttendeeEmail,
		"guests":         booking.Guests,
		"timezone":       booking.Timezone,
		"start":          booking.StartTime.Format(time.RFC3339),
		"end":            booking.EndTime.Format(time.RFC3339),
		"status":         booking.Status,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   uid,
		EventType:     "booking.created.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, createBookingResponse{UID: uid, Status: booking.Status})
}

// bookingStatus applies the confirmation rule: confirmation is only required
// when the booking starts further out than the event's threshold. A booking
// inside the threshold window is auto-accepted so it is not missed while
// waiting for the host.
func bookingStatus(ev storage.BookableEvent, start time.Time) string {
	if !ev.RequiresConfirmation {
		return model.StatusAccepted
	}
	if ev.ConfirmationThresholdMinutes > 0 {
		threshold := time.Duration(ev.ConfirmationThresholdMinutes) * time.Minute
		if time.Until(start) <= threshold {
			return model.StatusAccepted
		}
	}
	return model.StatusPending
}

func (h *BookingHandler) validateStartAgainstSchedule(ctx context.Context, username, eventSlug, timezone string, start time.Time) (bool, error) {
	if h.scheduling == nil {
		// No scheduling provider in this build; rely on the DB overlap constraint.
		return true, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	date := start.In(loc).Format("2006-01-02")

	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	slots, err := h.scheduling.GetDaySlots(reqCtx, username, eventSlug, date, timezone)
	if err != nil {
		return false, err
	}
	for _, s := range slots.StartsUTC {
		if s.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.UID = strings.TrimSpace(req.UID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.UID == "" {
		http.Error(w, "uid required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.repo.GetByUIDForUpdate(ctx, tx, req.UID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	// Cancelling twice is a no-op; return the original cancellation time.
	if booking.Status == model.StatusCancelled && booking.CancelledAt != nil {
		writeJSON(w, http.StatusOK, cancelBookingResponse{
			UID:         booking.UID,
			Status:      model.StatusCancelled,
			CancelledAt: booking.CancelledAt.UTC().Format(time.RFC3339),
		})
		return
	}

	cancelledAt, err := h.repo.Cancel(ctx, tx, booking.UID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}

	cancelPayload, err := json.Marshal(map[string]any{
		"uid":            booking.UID,
		"host_username":  booking.HostUsername,
		"event_slug":     booking.EventSlug,
		"attendee_name":  booking.AttendeeName,
		"attendee_email": booking.AttendeeEmail,
		"timezone":       booking.Timezone,
		"start":          booking.StartTime.UTC().Format(time.RFC3339),
		"end":            booking.EndTime.UTC().Format(time.RFC3339),
		"cancelled_at":   cancelledAt.UTC().Format(time.RFC3339),
		"reason":         req.Reason,
	})
	if err != nil {
		http.Error(w, "failed to build cancellation event", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   booking.UID,
		EventType:     "booking.cancelled.v1",
		Payload:       cancelPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cancelBookingResponse{
		UID:         booking.UID,
		Status:      model.StatusCancelled,
		CancelledAt: cancelledAt.UTC().Format(time.RFC3339),
	})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	userID, err := h.repo.GetUserID(r.Context(), username)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}

	bookings, err := h.repo.ListByHost(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}

	items := make([]listBookingItem, 0, len(bookings))
	for _, b := range bookings {
		item := listBookingItem{
			UID:           b.UID,
			EventSlug:     b.EventSlug,
			AttendeeName:  b.AttendeeName,
			AttendeeEmail: b.AttendeeEmail,
			Guests:        b.Guests,
			Start:         b.StartTime.UTC().Format(time.RFC3339),
			End:           b.EndTime.UTC().Format(time.RFC3339),
			Status:        b.Status,
			CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if b.CancelledAt != nil {
			item.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func cleanGuests(in []string) []string {
	var out []string
	for _, g := range in {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
