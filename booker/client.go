package booker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nayeem-rahman/slotbook/eventtype"
)

// Client talks to the public scheduling and booking endpoints and implements
// ScheduleSource, EventSource, and BookingCreator.
type Client struct {
	schedulingBaseURL string
	bookingBaseURL    string
	httpClient        *http.Client
}

func NewClient(schedulingBaseURL, bookingBaseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		schedulingBaseURL: strings.TrimRight(schedulingBaseURL, "/"),
		bookingBaseURL:    strings.TrimRight(bookingBaseURL, "/"),
		httpClient:        httpClient,
	}
}

func (c *Client) FetchSchedule(ctx context.Context, key ScheduleKey) (*Schedule, error) {
	q := url.Values{}
	q.Set("username", key.Username)
	q.Set("event", key.EventSlug)
	q.Set("month", key.Month)
	q.Set("timezone", key.Timezone)

	var sched Schedule
	if err := c.getJSON(ctx, c.schedulingBaseURL+"/api/v1/public/schedule?"+q.Encode(), &sched); err != nil {
		return nil, err
	}
	if sched.Days == nil {
		sched.Days = map[string][]Slot{}
	}
	return &sched, nil
}

func (c *Client) FetchEvent(ctx context.Context, username, eventSlug string) (*eventtype.EventType, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("event", eventSlug)

	var et eventtype.EventType
	if err := c.getJSON(ctx, c.schedulingBaseURL+"/api/v1/public/event?"+q.Encode(), &et); err != nil {
		return nil, err
	}
	return &et, nil
}

func (c *Client) CreateBooking(ctx context.Context, bookingReq BookingRequest) (BookingConfirmation, error) {
	body, err := json.Marshal(bookingReq)
	if err != nil {
		return BookingConfirmation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.bookingBaseURL+"/api/v1/public/bookings", bytes.NewReader(body))
	if err != nil {
		return BookingConfirmation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return BookingConfirmation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return BookingConfirmation{}, statusError(resp)
	}

	var conf BookingConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		return BookingConfirmation{}, err
	}
	return conf, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	text := strings.TrimSpace(string(msg))
	if text == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, text)
}
