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
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/handlers"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/outbox"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/scheduling"
	"github.com/nayeem-rahman/slotbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	repo := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	schedulingProvider, err := scheduling.NewProvider(config.String("SCHEDULING_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("scheduling provider init failed; relying on db constraints", "err", err)
		schedulingProvider = nil
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(repo, outboxRepo, logger, schedulingProvider)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/bookings", bookingHandler.Create)
	mux.HandleFunc("/api/v1/bookings", bookingHandler.List)
	mux.HandleFunc("/api/v1/public/bookings/cancel", bookingHandler.Cancel)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: []string{config.String("CORS_ALLOW_ORIGIN", "*")},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(1<<20),
		httpx.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 60), time.Minute).Middleware(),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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
