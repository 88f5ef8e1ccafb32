package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nayeem-rahman/slotbook/libs/config"
	"github.com/nayeem-rahman/slotbook/libs/db"
	"github.com/nayeem-rahman/slotbook/libs/httpx"
	"github.com/nayeem-rahman/slotbook/libs/kafkax"
	otelx "github.com/nayeem-rahman/slotbook/libs/otel"
	"github.com/nayeem-rahman/slotbook/libs/runtime"
	"github.com/nayeem-rahman/slotbook/services/notification-service/internal/consumer"
	"github.com/nayeem-rahman/slotbook/services/notification-service/internal/email"
	"github.com/nayeem-rahman/slotbook/services/notification-service/internal/inbox"
	"github.com/nayeem-rahman/slotbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	topicBookingCreated   = "booking.created.v1"
	topicBookingCancelled = "booking.cancelled.v1"
)

type bookingEventPayload struct {
	UID           string   `json:"uid"`
	HostUsername  string   `json:"host_username"`
	EventSlug     string   `json:"event_slug"`
	AttendeeName  string   `json:"attendee_name"`
	AttendeeEmail string   `json:"attendee_email"`
	Guests        []string `json:"guests"`
	Timezone      string   `json:"timezone"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Status        string   `json:"status"`
	Reason        string   `json:"reason"`
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@slotbook.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	failSuffix := config.String("NOTIFICATION_FAIL_SUFFIX", "")
	consumerCfg := consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics:  []string{topicBookingCreated, topicBookingCancelled},
	}
	eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
		var payload bookingEventPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.UID == "" || payload.AttendeeEmail == "" || payload.Start == "" {
			logger.Error("missing booking event fields", "topic", msg.Topic)
			return nil
		}
		start, err := time.Parse(time.RFC3339, payload.Start)
		if err != nil {
			logger.Error("invalid start timestamp", "err", err)
			return nil
		}
		end := start
		if payload.End != "" {
			if parsed, err := time.Parse(time.RFC3339, payload.End); err == nil {
				end = parsed
			}
		}

		details := email.BookingDetails{
			UID:          payload.UID,
			HostUsername: payload.HostUsername,
			EventSlug:    payload.EventSlug,
			AttendeeName: payload.AttendeeName,
			Timezone:     payload.Timezone,
			Start:        start,
			End:          end,
			Status:       payload.Status,
			CancelReason: payload.Reason,
		}

		var kind, subject, body string
		recipients := []string{payload.AttendeeEmail}
		switch msg.Topic {
		case topicBookingCreated:
			kind = "booking_created"
			subject, body = email.ConfirmationMessage(details)
			recipients = append(recipients, payload.Guests...)
		case topicBookingCancelled:
			kind = "booking_cancelled"
			subject, body = email.CancellationMessage(details)
		default:
			logger.Error("unexpected topic", "topic", msg.Topic)
			return nil
		}

		for _, recipient := range recipients {
			recipient = strings.TrimSpace(recipient)
			if recipient == "" {
				continue
			}

			status := "sent"
			if failSuffix != "" && strings.HasSuffix(recipient, failSuffix) {
				status = "failed"
			} else if err := emailSender.Send(recipient, subject, body); err != nil {
				status = "failed"
				logger.Error("email send failed", "err", err, "recipient", recipient, "booking_uid", payload.UID)
			}

			if err := notificationsRepo.Insert(ctx, storage.Notification{
				BookingUID: payload.UID,
				Kind:       kind,
				Recipient:  recipient,
				Payload: map[string]any{
					"host_username": payload.HostUsername,
					"event_slug":    payload.EventSlug,
					"start":         payload.Start,
					"end":           payload.End,
				},
				Status: status,
			}); err != nil {
				logger.Error("failed to persist notification", "err", err)
				return err
			}

			logger.Info("booking notification processed", "booking_uid", payload.UID, "kind", kind, "recipient", recipient, "status", status)
		}
		return nil
	})
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
