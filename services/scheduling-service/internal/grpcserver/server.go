//go:build protogen

package grpcserver

import (
	"context"
	"time"

	schedulingv1 "github.com/nayeem-rahman/slotbook/protos/gen/scheduling/v1"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/availability"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type server struct {
	schedulingv1.UnimplementedSchedulingServiceServer
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, repo *storage.Repository) {
	schedulingv1.RegisterSchedulingServiceServer(grpcServer, &server{repo: repo})
}

// GetDaySlots returns the open slot starts for one local date. The booking
// service calls this to verify a requested start before inserting.
func (s *server) GetDaySlots(ctx context.Context, req *schedulingv1.DaySlotsRequest) (*schedulingv1.DaySlotsResponse, error) {
	resp := &schedulingv1.DaySlotsResponse{
		Username:  req.GetUsername(),
		EventSlug: req.GetEventSlug(),
		Date:      req.GetDate(),
	}
	if req.GetUsername() == "" || req.GetEventSlug() == "" || req.GetDate() == "" {
		return resp, nil
	}

	loc, err := time.LoadLocation(req.GetTimezone())
	if err != nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", req.GetDate(), loc)
	if err != nil {
		return resp, nil
	}

	rec, err := s.repo.GetEventType(ctx, req.GetUsername(), req.GetEventSlug())
	if err != nil {
		return nil, err
	}
	rules, err := s.repo.ListAvailabilityRules(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	busy, err := s.repo.ListBookedIntervals(ctx, rec.UserID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	duration := time.Duration(rec.Event.Length) * time.Minute
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	step := time.Duration(rec.Event.SlotInterval) * time.Minute
	if step <= 0 {
		step = 15 * time.Minute
	}

	now := time.Now().UTC()
	for _, rule := range rules {
		if rule.Weekday != day.Weekday() || rule.EndMinute <= rule.StartMinute {
			continue
		}
		windowStart := day.Add(time.Duration(rule.StartMinute) * time.Minute)
		windowEnd := day.Add(time.Duration(rule.EndMinute) * time.Minute)
		for _, start := range availability.SlotStarts(windowStart, windowEnd, duration, step, busy, now) {
			resp.StartsUtc = append(resp.StartsUtc, timestamppb.New(start.UTC()))
		}
	}
	return resp, nil
}
