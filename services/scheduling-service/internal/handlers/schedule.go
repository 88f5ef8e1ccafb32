package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/availability"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/cache"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/storage"
)

const (
	defaultDurationMinutes = 30
	defaultStepMinutes     = 15
)

type ScheduleHandler struct {
	repo   *storage.Repository
	cache  *cache.ScheduleCache
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduleHandler(repo *storage.Repository, scheduleCache *cache.ScheduleCache, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		repo:   repo,
		cache:  scheduleCache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type slotItem struct {
	Time string `json:"time"`
}

type scheduleResponse struct {
	Days map[string][]slotItem `json:"days"`
}

// Schedule serves GET /api/v1/public/schedule. The response is the opaque
// contract the booker consumes: local dates mapped to slot start times.
func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	username := strings.TrimSpace(q.Get("username"))
	eventSlug := strings.TrimSpace(q.Get("event"))
	month := strings.TrimSpace(q.Get("month"))
	timezone := strings.TrimSpace(q.Get("timezone"))
	if timezone == "" {
		timezone = "UTC"
	}
	if username == "" || eventSlug == "" || month == "" {
		http.Error(w, "username, event, and month are required", http.StatusBadRequest)
		return
	}

	monthStart, err := time.Parse("2006-01", month)
	if err != nil {
		http.Error(w, "invalid month (want YYYY-MM)", http.StatusBadRequest)
		return
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.cache != nil {
		var cached scheduleResponse
		hit, err := h.cache.Get(ctx, username, eventSlug, month, timezone, &cached)
		if err != nil {
			h.logger.Warn("schedule cache read failed", "err", err)
		}
		if hit {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	rec, err := h.repo.GetEventType(ctx, username, eventSlug)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load event", http.StatusInternalServerError)
		return
	}

	rules, err := h.repo.ListAvailabilityRules(ctx, rec.UserID)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	first := time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, loc)
	busy, err := h.repo.ListBookedIntervals(ctx, rec.UserID, first, first.AddDate(0, 1, 0))
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}

	duration := time.Duration(rec.Event.Length) * time.Minute
	if duration <= 0 {
		duration = defaultDurationMinutes * time.Minute
	}
	step := time.Duration(rec.Event.SlotInterval) * time.Minute
	if step <= 0 {
		step = defaultStepMinutes * time.Minute
	}

	month2slots := availability.MonthSchedule(first, loc, rules, busy, duration, step, h.now())

	resp := scheduleResponse{Days: map[string][]slotItem{}}
	for day, starts := range month2slots {
		items := make([]slotItem, 0, len(starts))
		for _, s := range starts {
			items = append(items, slotItem{Time: s.Format(time.RFC3339)})
		}
		resp.Days[day] = items
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, username, eventSlug, month, timezone, resp); err != nil {
			h.logger.Warn("schedule cache write failed", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Event serves GET /api/v1/public/event: the public descriptor the booker
// renders the meta column and badges from.
func (h *ScheduleHandler) Event(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	username := strings.TrimSpace(q.Get("username"))
	eventSlug := strings.TrimSpace(q.Get("event"))
	if username == "" || eventSlug == "" {
		http.Error(w, "username and event are required", http.StatusBadRequest)
		return
	}

	rec, err := h.repo.GetEventType(r.Context(), username, eventSlug)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load event", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec.Event)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
