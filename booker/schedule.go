package booker

import (
	"context"
	"sync"
	"time"

	"github.com/nayeem-rahman/slotbook/eventtype"
)

// ScheduleKey identifies one fetched month of availability. Any component
// changing means a different cache entry and a fresh fetch.
type ScheduleKey struct {
	Username  string
	EventSlug string
	Month     string // first month shown, formatted 2006-01
	Timezone  string // IANA name, e.g. Europe/Berlin
}

// Slot is one bookable start time. Duration is implied by the event type.
type Slot struct {
	Time time.Time `json:"time"`
}

// Schedule maps dates (2006-01-02, in the key's timezone) to their open slots.
type Schedule struct {
	Days map[string][]Slot `json:"days"`
}

// ScheduleSource fetches a month of availability. Implementations do one
// network round trip per call; caching and de-duplication happen above it.
type ScheduleSource interface {
	FetchSchedule(ctx context.Context, key ScheduleKey) (*Schedule, error)
}

// EventSource fetches the public event descriptor.
type EventSource interface {
	FetchEvent(ctx context.Context, username, eventSlug string) (*eventtype.EventType, error)
}

// ScheduleCache caches schedules per key, collapses concurrent fetches for
// the same key into one call, and keeps stale data around when a refetch
// fails so the calendar never flickers to empty on a transient error.
type ScheduleCache struct {
	source ScheduleSource
	ttl    time.Duration

	mu      sync.Mutex
	entries map[ScheduleKey]*scheduleEntry
}

type scheduleEntry struct {
	data      *Schedule
	err       error
	updatedAt time.Time
	fetching  bool
	done      chan struct{} // closed when the in-flight fetch settles
}

const defaultScheduleTTL = 2 * time.Minute

func NewScheduleCache(source ScheduleSource, ttl time.Duration) *ScheduleCache {
	if ttl <= 0 {
		ttl = defaultScheduleTTL
	}
	return &ScheduleCache{
		source:  source,
		ttl:     ttl,
		entries: map[ScheduleKey]*scheduleEntry{},
	}
}

// Get returns the schedule for key. A fresh cached value is returned without a
// network call. If a fetch for the same key is already in flight, Get waits
// for it instead of issuing another. On fetch failure the previous data for
// the key, if any, is returned alongside the error.
func (c *ScheduleCache) Get(ctx context.Context, key ScheduleKey) (*Schedule, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &scheduleEntry{}
		c.entries[key] = e
	}

	if e.data != nil && time.Since(e.updatedAt) < c.ttl {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}

	if e.fetching {
		done := e.done
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
		data, err := e.data, e.err
		c.mu.Unlock()
		return data, err
	}

	e.fetching = true
	e.done = make(chan struct{})
	done := e.done
	c.mu.Unlock()

	data, err := c.source.FetchSchedule(ctx, key)

	c.mu.Lock()
	e.fetching = false
	if err != nil {
		// Keep whatever was cached before; only record the error.
		e.err = err
	} else {
		e.data = data
		e.err = nil
		e.updatedAt = time.Now()
	}
	data, err = e.data, e.err
	close(done)
	c.mu.Unlock()
	return data, err
}

// Cached returns the current entry for key without triggering a fetch.
func (c *ScheduleCache) Cached(key ScheduleKey) (*Schedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.data == nil {
		return nil, false
	}
	return e.data, true
}
