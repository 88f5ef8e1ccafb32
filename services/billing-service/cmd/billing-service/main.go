package main

import (
	"context"
	"net/http"
	"time"

	"github.com/nayeem-rahman/slotbook/libs/config"
	"github.com/nayeem-rahman/slotbook/libs/db"
	"github.com/nayeem-rahman/slotbook/libs/httpx"
	"github.com/nayeem-rahman/slotbook/libs/kafkax"
	otelx "github.com/nayeem-rahman/slotbook/libs/otel"
	"github.com/nayeem-rahman/slotbook/libs/runtime"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/handlers"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/outbox"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/reconcile"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/storage"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/subscriptions"
	"github.com/nayeem-rahman/slotbook/services/billing-service/internal/teams"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "billing-service")
	port, err := config.Port("PORT", "8084")
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

	repo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	subSvc := subscriptions.New(repo, outboxRepo)
	teamsSvc := teams.NewService(teams.Config{
		SecretKey:      config.String("STRIPE_SECRET_KEY", ""),
		BaseURL:        config.String("BASE_URL", "http://localhost:3000"),
		MonthlyPriceID: config.String("STRIPE_TEAM_MONTHLY_PRICE_ID", ""),
		YearlyPriceID:  config.String("STRIPE_TEAM_YEARLY_PRICE_ID", ""),
	})
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	h := handlers.New(repo, outboxRepo, teamsSvc, logger, handlers.Config{
		StripeWebhookSecret:           config.String("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookToleranceSeconds: config.Int("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300),
	})
	mux.HandleFunc("/api/v1/teams/checkout", h.Checkout)
	mux.HandleFunc("/api/v1/teams/checkout/session", h.CheckoutSessionStatus)
	mux.HandleFunc("/api/v1/teams/subscription", h.GetSubscription)
	mux.HandleFunc("/api/v1/webhooks/stripe", h.StripeWebhook)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "billing")
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

	// Stripe reconciliation: periodically self-heal subscription state if
	// webhooks are missed.
	if config.Bool("BILLING_STRIPE_RECONCILE_ENABLED", false) {
		interval := config.Duration("BILLING_STRIPE_RECONCILE_INTERVAL", 5*time.Minute)
		rec := reconcile.NewStripeReconciler(pool, repo, subSvc, logger, reconcile.StripeReconcilerConfig{
			StripeSecretKey: config.String("STRIPE_SECRET_KEY", ""),
			Interval:        interval,
			BatchSize:       config.Int("BILLING_STRIPE_RECONCILE_BATCH_SIZE", 50),
			AdvisoryLockKey: int64(config.Int("BILLING_STRIPE_RECONCILE_LOCK_KEY", 4242001)),
		})
		go rec.Run(ctx, interval)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
