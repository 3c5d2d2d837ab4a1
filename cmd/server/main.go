package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cinepass/boxoffice/internal/booking"
	"github.com/cinepass/boxoffice/internal/config"
	"github.com/cinepass/boxoffice/internal/database"
	"github.com/cinepass/boxoffice/internal/handler"
	"github.com/cinepass/boxoffice/internal/logger"
	"github.com/cinepass/boxoffice/internal/metrics"
	"github.com/cinepass/boxoffice/internal/queue"
	"github.com/cinepass/boxoffice/internal/repository"
	"github.com/cinepass/boxoffice/internal/router"
	"github.com/cinepass/boxoffice/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.New(cfg.Env)
	logger.Set(log)
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	broker, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("dial broker", zap.Error(err))
	}
	defer broker.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable, rate limiting disabled")
	}

	store := repository.NewStore(db)
	screenings := repository.NewScreeningRepo(db)
	seats := repository.NewSeatRepo(db)
	reservations := repository.NewReservationRepo(db)
	sales := repository.NewSaleRepo(db)

	publisher := queue.NewPublisher(broker)
	coordinator := booking.NewCoordinator(
		store, screenings, seats, reservations, sales,
		publisher, publisher,
		cfg.Booking.ReservationTTL,
		booking.Retry{
			MaxAttempts:   cfg.Booking.MaxRetryAttempts,
			InitialDelay:  cfg.Booking.InitialRetryDelay,
			BackoffFactor: cfg.Booking.RetryBackoffFactor,
			MaxDelay:      cfg.Booking.MaxRetryDelay,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewExpirationConsumer(cfg.AMQPURL, coordinator, queue.ConsumerConfig{
		BatchSize:     cfg.Booking.ExpirationBatch,
		FlushInterval: cfg.Booking.ExpirationFlush,
	}, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("expiration consumer stopped", zap.Error(err))
		}
	}()

	sweeper := worker.NewSweeper(coordinator, cfg.Booking.SweepInterval, cfg.Booking.SweepLimit, log)
	go sweeper.Start(ctx)

	m := metrics.New()
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	router.Register(e, router.Deps{
		Booking:   handler.NewBookingHandler(coordinator, m),
		Query:     handler.NewQueryHandler(screenings, seats, reservations, sales),
		Admin:     handler.NewAdminHandler(store, screenings, seats),
		Metrics:   m,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		JWTSecret: cfg.JWTSecret,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
