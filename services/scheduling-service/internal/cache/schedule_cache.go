// Package cache holds the Redis-backed cache of computed month schedules.
// Computing a month touches event types, availability rules, and bookings;
// callers hit this first so repeated browsing of the same month is cheap.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type ScheduleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *ScheduleCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &ScheduleCache{rdb: rdb, ttl: ttl}
}

func cacheKey(username, eventSlug, month, timezone string) string {
	return fmt.Sprintf("schedule:%s:%s:%s:%s", username, eventSlug, month, timezone)
}

// Get returns the cached response body for the key, or ok=false on a miss.
// Redis being down is reported as a miss plus an error so callers can log and
// fall through to computing.
func (c *ScheduleCache) Get(ctx context.Context, username, eventSlug, month, timezone string, out any) (bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(username, eventSlug, month, timezone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// Treat a corrupt entry as a miss; it will be overwritten.
		return false, nil
	}
	return true, nil
}

func (c *ScheduleCache) Set(ctx context.Context, username, eventSlug, month, timezone string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(username, eventSlug, month, timezone), raw, c.ttl).Err()
}

// ReadyCheck pings Redis for /readyz.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
