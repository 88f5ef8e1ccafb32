// Package teams holds the Stripe glue for team subscription purchases.
package teams

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
)

type BillingFrequency string

const (
	FrequencyMonthly BillingFrequency = "monthly"
	FrequencyYearly  BillingFrequency = "yearly"
)

// ErrExternalService wraps failures of the payment processor so callers can
// map them to a gateway error without inspecting Stripe types.
var ErrExternalService = errors.New("payment processor request failed")

func ParseFrequency(raw string) (BillingFrequency, bool) {
	switch BillingFrequency(strings.TrimSpace(strings.ToLower(raw))) {
	case FrequencyMonthly:
		return FrequencyMonthly, true
	case FrequencyYearly:
		return FrequencyYearly, true
	default:
		return "", false
	}
}

type Config struct {
	SecretKey      string
	BaseURL        string
	MonthlyPriceID string
	YearlyPriceID  string
}

type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Service{cfg: cfg}
}

func (s *Service) Configured() bool {
	return strings.TrimSpace(s.cfg.SecretKey) != ""
}

// PurchaseTeamSubscription creates a subscription checkout session for a team
// of the given size. Seats and email are passed to Stripe as-is; there is no
// local validation and no retry.
func (s *Service) PurchaseTeamSubscription(teamID int64, freq BillingFrequency, seats int64, email string) (*stripe.CheckoutSession, error) {
	stripe.Key = s.cfg.SecretKey
	sess, err := checkoutsession.New(checkoutParams(s.cfg, teamID, freq, seats, email))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return sess, nil
}

func checkoutParams(cfg Config, teamID int64, freq BillingFrequency, seats int64, email string) *stripe.CheckoutSessionParams {
	priceID := cfg.YearlyPriceID
	if freq == FrequencyMonthly {
		priceID = cfg.MonthlyPriceID
	}
	metadata := map[string]string{
		"teamId": strconv.FormatInt(teamID, 10),
	}
	return &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(fmt.Sprintf("%s/settings/teams/%d/profile", cfg.BaseURL, teamID)),
		CancelURL:  stripe.String(cfg.BaseURL + "/settings/profile"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(seats),
			},
		},
		CustomerEmail:      stripe.String(email),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Metadata:           metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
}
