package teams

import "testing"

func TestCheckoutParams(t *testing.T) {
	cfg := Config{
		BaseURL:        "https://app.example.com",
		MonthlyPriceID: "price_monthly",
		YearlyPriceID:  "price_yearly",
	}

	params := checkoutParams(cfg, 42, FrequencyMonthly, 3, "a@b.com")

	if got := *params.Mode; got != "subscription" {
		t.Fatalf("mode = %q", got)
	}
	if got := *params.SuccessURL; got != "https://app.example.com/settings/teams/42/profile" {
		t.Fatalf("success url = %q", got)
	}
	if got := *params.CancelURL; got != "https://app.example.com/settings/profile" {
		t.Fatalf("cancel url = %q", got)
	}
	if len(params.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(params.LineItems))
	}
	if got := *params.LineItems[0].Price; got != "price_monthly" {
		t.Fatalf("price = %q", got)
	}
	if got := *params.LineItems[0].Quantity; got != 3 {
		t.Fatalf("quantity = %d", got)
	}
	if got := *params.CustomerEmail; got != "a@b.com" {
		t.Fatalf("customer email = %q", got)
	}
	if len(params.PaymentMethodTypes) != 1 || *params.PaymentMethodTypes[0] != "card" {
		t.Fatalf("payment method types = %v", params.PaymentMethodTypes)
	}
	if got := params.Metadata["teamId"]; got != "42" {
		t.Fatalf("session metadata teamId = %q", got)
	}
	if params.SubscriptionData == nil || params.SubscriptionData.Metadata["teamId"] != "42" {
		t.Fatal("subscription metadata must carry teamId")
	}
}

func TestCheckoutParams_YearlyPrice(t *testing.T) {
	cfg := Config{MonthlyPriceID: "price_monthly", YearlyPriceID: "price_yearly"}
	params := checkoutParams(cfg, 7, FrequencyYearly, 10, "team@example.com")
	if got := *params.LineItems[0].Price; got != "price_yearly" {
		t.Fatalf("price = %q", got)
	}
}

func TestParseFrequency(t *testing.T) {
	if f, ok := ParseFrequency(" Monthly "); !ok || f != FrequencyMonthly {
		t.Fatalf("ParseFrequency monthly = %q, %v", f, ok)
	}
	if f, ok := ParseFrequency("yearly"); !ok || f != FrequencyYearly {
		t.Fatalf("ParseFrequency yearly = %q, %v", f, ok)
	}
	if _, ok := ParseFrequency("weekly"); ok {
		t.Fatal("weekly must be rejected")
	}
}
