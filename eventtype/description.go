package eventtype

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// BadgeKind identifies what a badge describes, so callers can pick icons.
type BadgeKind string

const (
	BadgeDuration       BadgeKind = "duration"
	BadgeSchedulingType BadgeKind = "scheduling_type"
	BadgeRecurrence     BadgeKind = "recurrence"
	BadgePrice          BadgeKind = "price"
	BadgeConfirmation   BadgeKind = "confirmation"
	BadgeCombined       BadgeKind = "combined"
	BadgeSeats          BadgeKind = "seats"
)

// Badge is one display tag of an event-type description.
type Badge struct {
	Kind  BadgeKind `json:"kind"`
	Label string    `json:"label"`
}

// DescribeOptions control rendering. Narrow collapses the recurrence and
// confirmation badges into a single counter, matching compact layouts.
type DescribeOptions struct {
	Locale string
	Narrow bool
}

// Describe renders the ordered badge list for an event type. Optional fields
// that are unset emit no badge; Describe never fails.
func Describe(et EventType, opts DescribeOptions) []Badge {
	var badges []Badge

	for _, d := range et.DurationsForDisplay() {
		if d <= 0 {
			continue
		}
		badges = append(badges, Badge{Kind: BadgeDuration, Label: fmt.Sprintf("%dm", d)})
	}

	switch et.SchedulingType {
	case SchedulingRoundRobin:
		badges = append(badges, Badge{Kind: BadgeSchedulingType, Label: "Round Robin"})
	case SchedulingCollective:
		badges = append(badges, Badge{Kind: BadgeSchedulingType, Label: "Collective"})
	}

	if !opts.Narrow && et.RecurringCount > 0 {
		badges = append(badges, Badge{
			Kind:  BadgeRecurrence,
			Label: fmt.Sprintf("Repeats up to %d times", et.RecurringCount),
		})
	}

	if et.Price > 0 {
		badges = append(badges, Badge{
			Kind:  BadgePrice,
			Label: FormatPrice(et.Price, et.Currency, opts.Locale),
		})
	}

	if !opts.Narrow && et.RequiresConfirmation {
		label := "Requires confirmation"
		if et.ConfirmationThresholdMinutes > 0 {
			label = "May require confirmation"
		}
		badges = append(badges, Badge{Kind: BadgeConfirmation, Label: label})
	}

	if opts.Narrow {
		count := 0
		if et.RequiresConfirmation {
			count++
		}
		if et.RecurringCount > 0 {
			count++
		}
		if count > 0 {
			badges = append(badges, Badge{Kind: BadgeCombined, Label: strconv.Itoa(count)})
		}
	}

	if et.SeatsPerTimeSlot > 0 {
		badges = append(badges, Badge{
			Kind:  BadgeSeats,
			Label: fmt.Sprintf("%d seats", et.SeatsPerTimeSlot),
		})
	}

	return badges
}

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"BRL": "R$",
	"CHF": "CHF ",
}

// FormatPrice renders an amount in minor units (cents) for display.
// The number format follows the locale; the symbol comes from a fixed table so
// badge strings stay deterministic across library versions. Unknown currencies
// fall back to "CODE 12.34".
func FormatPrice(amountMinor int64, currencyCode string, locale string) string {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	p := message.NewPrinter(tag)
	formatted := p.Sprint(number.Decimal(float64(amountMinor)/100,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))

	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if sym, ok := currencySymbols[code]; ok {
		return sym + formatted
	}
	if code == "" {
		return formatted
	}
	return code + " " + formatted
}
