package booker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int32
	results map[ScheduleKey]*Schedule
	err     error
	block   chan struct{} // when set, FetchSchedule waits until it is closed
}

func (f *fakeSource) FetchSchedule(ctx context.Context, key ScheduleKey) (*Schedule, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.results[key]; ok {
		return s, nil
	}
	return &Schedule{Days: map[string][]Slot{}}, nil
}

func (f *fakeSource) callCount() int { return int(atomic.LoadInt32(&f.calls)) }

func key(month string) ScheduleKey {
	return ScheduleKey{Username: "ana", EventSlug: "30min", Month: month, Timezone: "UTC"}
}

func scheduleWithDay(day string) *Schedule {
	return &Schedule{Days: map[string][]Slot{
		day: {{Time: time.Now()}},
	}}
}

func TestScheduleCache_HitDoesNotRefetch(t *testing.T) {
	src := &fakeSource{results: map[ScheduleKey]*Schedule{
		key("2026-09"): scheduleWithDay("2026-09-14"),
	}}
	cache := NewScheduleCache(src, time.Minute)

	ctx := context.Background()
	first, err := cache.Get(ctx, key("2026-09"))
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := cache.Get(ctx, key("2026-09"))
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if src.callCount() != 1 {
		t.Fatalf("expected 1 source call, got %d", src.callCount())
	}
	if first != second {
		t.Fatal("expected the cached schedule on the second get")
	}
}

func TestScheduleCache_DistinctKeysFetchIndependently(t *testing.T) {
	src := &fakeSource{results: map[ScheduleKey]*Schedule{}}
	cache := NewScheduleCache(src, time.Minute)

	ctx := context.Background()
	if _, err := cache.Get(ctx, key("2026-09")); err != nil {
		t.Fatalf("get sep: %v", err)
	}
	if _, err := cache.Get(ctx, key("2026-10")); err != nil {
		t.Fatalf("get oct: %v", err)
	}
	if src.callCount() != 2 {
		t.Fatalf("expected 2 source calls for 2 keys, got %d", src.callCount())
	}
}

func TestScheduleCache_InFlightDeduplication(t *testing.T) {
	src := &fakeSource{
		results: map[ScheduleKey]*Schedule{key("2026-09"): scheduleWithDay("2026-09-14")},
		block:   make(chan struct{}),
	}
	cache := NewScheduleCache(src, time.Minute)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(ctx, key("2026-09")); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}

	// Give the goroutines a moment to pile onto the same in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(src.block)
	wg.Wait()

	if src.callCount() != 1 {
		t.Fatalf("expected 1 source call for 5 concurrent gets, got %d", src.callCount())
	}
}

func TestScheduleCache_FailureKeepsPreviousData(t *testing.T) {
	k := key("2026-09")
	src := &fakeSource{results: map[ScheduleKey]*Schedule{k: scheduleWithDay("2026-09-14")}}
	cache := NewScheduleCache(src, 10*time.Millisecond)

	ctx := context.Background()
	if _, err := cache.Get(ctx, k); err != nil {
		t.Fatalf("seed get: %v", err)
	}

	// Expire the entry, then make the refetch fail.
	time.Sleep(20 * time.Millisecond)
	src.mu.Lock()
	src.err = errors.New("upstream down")
	src.mu.Unlock()

	sched, err := cache.Get(ctx, k)
	if err == nil {
		t.Fatal("expected the refetch error to surface")
	}
	if sched == nil || len(sched.Days["2026-09-14"]) == 0 {
		t.Fatal("previous data must survive a failed refetch")
	}
}
