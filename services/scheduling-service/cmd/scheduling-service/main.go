package main

import (
	"context"
	"net/http"
	"time"

	"github.com/nayeem-rahman/slotbook/libs/config"
	"github.com/nayeem-rahman/slotbook/libs/db"
	"github.com/nayeem-rahman/slotbook/libs/httpx"
	otelx "github.com/nayeem-rahman/slotbook/libs/otel"
	"github.com/nayeem-rahman/slotbook/libs/runtime"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/cache"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/handlers"
	"github.com/nayeem-rahman/slotbook/services/scheduling-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8082")
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

	if err := startGrpcServer(ctx, logger, repo); err != nil {
		logger.Error("grpc server start failed", "err", err)
	}

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}

	var scheduleCache *cache.ScheduleCache
	var limiter httpx.Middleware
	redisAddr := config.String("REDIS_ADDR", "")
	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		scheduleCache = cache.New(rdb, config.Duration("SCHEDULE_CACHE_TTL", 60*time.Second))
		limiter = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, "sched").Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb)})
	} else {
		logger.Warn("REDIS_ADDR not set; schedule cache disabled, using in-memory rate limiter")
		limiter = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	scheduleHandler := handlers.NewScheduleHandler(repo, scheduleCache, logger)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/public/schedule", scheduleHandler.Schedule)
	mux.HandleFunc("/api/v1/public/event", scheduleHandler.Event)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: []string{config.String("CORS_ALLOW_ORIGIN", "*")},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
		limiter,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
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
