package booker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_FetchSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/public/schedule" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("username") != "ana" || q.Get("event") != "30min" ||
			q.Get("month") != "2026-09" || q.Get("timezone") != "Europe/Berlin" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"days":{"2026-09-14":[{"time":"2026-09-14T09:00:00Z"}]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.Client())
	sched, err := c.FetchSchedule(context.Background(), ScheduleKey{
		Username: "ana", EventSlug: "30min", Month: "2026-09", Timezone: "Europe/Berlin",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(sched.Days["2026-09-14"]) != 1 {
		t.Fatalf("unexpected schedule: %+v", sched)
	}
}

func TestClient_FetchEventNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "event not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.Client())
	if _, err := c.FetchEvent(context.Background(), "ana", "missing"); err == nil {
		t.Fatal("expected an error for 404")
	}
}

func TestClient_CreateBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/public/bookings" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req BookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Username != "ana" || req.Email != "bea@example.com" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(BookingConfirmation{UID: "bk_9", Status: "pending"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.Client())
	conf, err := c.CreateBooking(context.Background(), BookingRequest{
		Username: "ana", EventSlug: "30min", Name: "Bea", Email: "bea@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conf.UID != "bk_9" || conf.Status != "pending" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
}
