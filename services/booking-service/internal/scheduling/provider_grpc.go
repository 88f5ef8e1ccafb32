//go:build protogen

package scheduling

import (
	"context"
	"time"

	"github.com/nayeem-rahman/slotbook/libs/grpcx"
	schedulingv1 "github.com/nayeem-rahman/slotbook/protos/gen/scheduling/v1"
)

// DaySlots is the set of open slot starts the scheduling service computed for
// one local date.
type DaySlots struct {
	StartsUTC []time.Time
}

type Provider interface {
	GetDaySlots(ctx context.Context, username, eventSlug, date, timezone string) (DaySlots, error)
}

type grpcProvider struct {
	client schedulingv1.SchedulingServiceClient
}

func NewProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: schedulingv1.NewSchedulingServiceClient(conn)}, nil
}

func (p *grpcProvider) GetDaySlots(ctx context.Context, username, eventSlug, date, timezone string) (DaySlots, error) {
	resp, err := p.client.GetDaySlots(ctx, &schedulingv1.DaySlotsRequest{
		Username:  username,
		EventSlug: eventSlug,
		Date:      date,
		Timezone:  timezone,
	})
	if err != nil {
		return DaySlots{}, err
	}
	var out DaySlots
	for _, ts := range resp.GetStartsUtc() {
		if ts == nil {
			continue
		}
		out.StartsUTC = append(out.StartsUTC, ts.AsTime())
	}
	return out, nil
}
