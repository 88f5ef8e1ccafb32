package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"
)

func main() {
	var (
		baseURL   = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		evtType   = flag.String("type", getenv("STRIPE_EVENT_TYPE", "checkout.session.completed"), "stripe event type")
		teamID    = flag.String("team-id", getenv("TEAM_ID", ""), "teamId metadata")
		sessionID = flag.String("session-id", getenv("STRIPE_SESSION_ID", "cs_test_123"), "checkout session id")
		secret    = flag.String("secret", getenv("STRIPE_WEBHOOK_SECRET", ""), "stripe webhook signing secret (whsec_...)")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fatal("STRIPE_WEBHOOK_SECRET is required")
	}
	if strings.TrimSpace(*teamID) == "" {
		fatal("TEAM_ID is required")
	}

	now := time.Now().UTC()
	eventID := fmt.Sprintf("evt_test_%d", now.UnixNano())

	payload, err := buildEventJSON(eventID, *evtType, now, *teamID, *sessionID)
	if err != nil {
		fatal(err.Error())
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    *secret,
		Timestamp: now,
		Scheme:    "v1",
	})

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()

	fmt.Printf("status=%d\n", resp.StatusCode)
}

func buildEventJSON(eventID, eventType string, t time.Time, teamID, sessionID string) ([]byte, error) {
	created := t.Unix()
	switch eventType {
	case "checkout.session.completed", "checkout.session.expired":
		return json.Marshal(map[string]any{
			"id":          eventID,
			"object":      "event",
			"created":     created,
			"type":        eventType,
			"api_version": "2020-08-27",
			"data": map[string]any{
				"object": map[string]any{
					"id":     sessionID,
					"object": "checkout.session",
					"metadata": map[string]any{
						"teamId": teamID,
					},
				},
			},
		})
	case "customer.subscription.deleted":
		return json.Marshal(map[string]any{
			"id":          eventID,
			"object":      "event",
			"created":     created,
			"type":        eventType,
			"api_version": "2020-08-27",
			"data": map[string]any{
				"object": map[string]any{
					"id":     "sub_test_123",
					"object": "subscription",
					"status": "canceled",
					"metadata": map[string]any{
						"teamId": teamID,
					},
				},
			},
		})
	default:
		return nil, fmt.Errorf("unsupported event type: %s", eventType)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
