package eventtype

import "testing"

func badgesOfKind(badges []Badge, kind BadgeKind) []Badge {
	var out []Badge
	for _, b := range badges {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func TestDescribe_FreeEventHasNoPriceBadge(t *testing.T) {
	badges := Describe(EventType{Length: 30, Price: 0}, DescribeOptions{})

	durations := badgesOfKind(badges, BadgeDuration)
	if len(durations) != 1 {
		t.Fatalf("expected exactly 1 duration badge, got %d", len(durations))
	}
	if durations[0].Label != "30m" {
		t.Fatalf("expected duration badge 30m, got %q", durations[0].Label)
	}
	if len(badgesOfKind(badges, BadgePrice)) != 0 {
		t.Fatal("free event must not emit a price badge")
	}
}

func TestDescribe_PriceBadgeUSD(t *testing.T) {
	badges := Describe(EventType{Length: 30, Price: 5000, Currency: "USD"}, DescribeOptions{})
	prices := badgesOfKind(badges, BadgePrice)
	if len(prices) != 1 {
		t.Fatalf("expected 1 price badge, got %d", len(prices))
	}
	if prices[0].Label != "$50.00" {
		t.Fatalf("expected $50.00, got %q", prices[0].Label)
	}
}

func TestDescribe_MultipleDurations(t *testing.T) {
	badges := Describe(EventType{Length: 30, Durations: []int{15, 30, 60}}, DescribeOptions{})
	durations := badgesOfKind(badges, BadgeDuration)
	if len(durations) != 3 {
		t.Fatalf("expected 3 duration badges, got %d", len(durations))
	}
	want := []string{"15m", "30m", "60m"}
	for i, b := range durations {
		if b.Label != want[i] {
			t.Fatalf("duration %d: expected %q, got %q", i, want[i], b.Label)
		}
	}
}

func TestDescribe_SchedulingTypeAndSeats(t *testing.T) {
	badges := Describe(EventType{
		Length:           15,
		SchedulingType:   SchedulingRoundRobin,
		SeatsPerTimeSlot: 4,
	}, DescribeOptions{})

	st := badgesOfKind(badges, BadgeSchedulingType)
	if len(st) != 1 || st[0].Label != "Round Robin" {
		t.Fatalf("unexpected scheduling type badges: %+v", st)
	}
	seats := badgesOfKind(badges, BadgeSeats)
	if len(seats) != 1 || seats[0].Label != "4 seats" {
		t.Fatalf("unexpected seats badges: %+v", seats)
	}
}

func TestDescribe_Recurrence(t *testing.T) {
	badges := Describe(EventType{Length: 30, RecurringCount: 6}, DescribeOptions{})
	rec := badgesOfKind(badges, BadgeRecurrence)
	if len(rec) != 1 || rec[0].Label != "Repeats up to 6 times" {
		t.Fatalf("unexpected recurrence badges: %+v", rec)
	}

	none := Describe(EventType{Length: 30}, DescribeOptions{})
	if len(badgesOfKind(none, BadgeRecurrence)) != 0 {
		t.Fatal("zero recurrence must not emit a badge")
	}
}

func TestDescribe_ConfirmationThreshold(t *testing.T) {
	badges := Describe(EventType{Length: 30, RequiresConfirmation: true}, DescribeOptions{})
	conf := badgesOfKind(badges, BadgeConfirmation)
	if len(conf) != 1 || conf[0].Label != "Requires confirmation" {
		t.Fatalf("unexpected confirmation badges: %+v", conf)
	}

	badges = Describe(EventType{
		Length:                       30,
		RequiresConfirmation:         true,
		ConfirmationThresholdMinutes: 120,
	}, DescribeOptions{})
	conf = badgesOfKind(badges, BadgeConfirmation)
	if len(conf) != 1 || conf[0].Label != "May require confirmation" {
		t.Fatalf("unexpected threshold confirmation badges: %+v", conf)
	}
}

func TestDescribe_NarrowCollapsesIndicators(t *testing.T) {
	et := EventType{Length: 30, RequiresConfirmation: true, RecurringCount: 3}

	wide := Describe(et, DescribeOptions{})
	if len(badgesOfKind(wide, BadgeCombined)) != 0 {
		t.Fatal("wide layout must not emit the combined badge")
	}

	narrow := Describe(et, DescribeOptions{Narrow: true})
	if len(badgesOfKind(narrow, BadgeConfirmation)) != 0 || len(badgesOfKind(narrow, BadgeRecurrence)) != 0 {
		t.Fatal("narrow layout must not emit individual confirmation/recurrence badges")
	}
	combined := badgesOfKind(narrow, BadgeCombined)
	if len(combined) != 1 || combined[0].Label != "2" {
		t.Fatalf("unexpected combined badge: %+v", combined)
	}
}

func TestFormatPrice_UnknownCurrency(t *testing.T) {
	if got := FormatPrice(12550, "BDT", ""); got != "BDT 125.50" {
		t.Fatalf("expected BDT 125.50, got %q", got)
	}
}
