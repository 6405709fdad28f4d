package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"parkshare/internal/app/commands"
	availabilityapp "parkshare/internal/app/handlers/availability"
	reservationsapp "parkshare/internal/app/handlers/reservations"
	sessionsapp "parkshare/internal/app/handlers/sessions"
	spotsapp "parkshare/internal/app/handlers/spots"
	"parkshare/internal/app/middleware"
	appoutbox "parkshare/internal/app/outbox"
	"parkshare/internal/app/queries"
	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/spots"
	"parkshare/internal/infra/backend"
	"parkshare/internal/infra/broker/kafka"
	rediscache "parkshare/internal/infra/cache/redis"
	"parkshare/internal/infra/config"
	mongodb "parkshare/internal/infra/db/mongo"
	ginserver "parkshare/internal/infra/http/gin"
	"parkshare/internal/infra/inbox"
	"parkshare/internal/infra/obs"
	infraoutbox "parkshare/internal/infra/outbox"
	"parkshare/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

	var wg sync.WaitGroup
	for _, job := range app.background {
		wg.Add(1)
		go func(job backgroundJob) {
			defer wg.Done()
			if err := job.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background job stopped", "job", job.name, "error", err)
			}
		}(job)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "backend", cfg.BackendURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
		wg.Wait()
		os.Exit(1)
	}
	wg.Wait()
	logger.Info("HTTP server stopped")
}

type backgroundJob struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	handlers   ginserver.Handlers
	health     obs.HealthHandlers
	background []backgroundJob
	closers    []func(ctx context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]func(context.Context) error{}}}

	var metrics *obs.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = obs.NewMetrics(reg)
		app.handlers.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	api := backend.New(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout, cfg.Location)
	api.Logger = logger
	if metrics != nil {
		api.Observer = metrics
	}

	var directory spots.Directory = api
	var spotCache *rediscache.SpotDirectory
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		spotCache = &rediscache.SpotDirectory{Next: api, Client: rdb, TTL: cfg.SpotCacheTTL, Logger: logger}
		if metrics != nil {
			spotCache.Observer = metrics
		}
		directory = spotCache
		app.health.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
	}

	var box appoutbox.Outbox = memory.NewOutbox(logger)
	var idStore middleware.IdempotencyStore = memory.NewIdempotencyStore()
	var mongoCli *mongodb.Client
	if cfg.MongoURI != "" {
		cli, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		mongoCli = cli
		app.health.Checks["mongo"] = mongoCli.Ping
		app.closers = append(app.closers, mongoCli.Close)
		idStore = mongodb.NewIdempotencyStore(ctx, mongoCli.DB, 24*time.Hour)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })

		store := infraoutbox.NewStore(ctx, mongoCli.DB)
		box = store
		app.health.Checks["outbox"] = func(ctx context.Context) error {
			_, err := store.Pending(ctx)
			return err
		}
		worker := &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Logger:      logger,
		}
		if metrics != nil {
			worker.Observer = metrics
		}
		app.background = append(app.background, backgroundJob{name: "outbox", run: worker.Run})

		if spotCache != nil {
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, kafka.SpotEventsHandler{
				Cache:  spotCache,
				Inbox:  inbox.NewStore(ctx, mongoCli.DB, cfg.KafkaGroupID, 7*24*time.Hour),
				Logger: logger,
			}, logger)
			if err != nil {
				return nil, err
			}
			app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
			topic := cfg.KafkaTopicPrefix + kafka.SpotEventsTopic
			app.background = append(app.background, backgroundJob{name: "spot-events", run: func(ctx context.Context) error {
				return consumer.Run(ctx, []string{topic})
			}})
		}
	}

	now := time.Now
	availabilitySvc := &availability.Service{Spots: directory, Source: api, Location: cfg.Location, Now: now}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	sessionRepo := memory.NewSessionRepository()
	sessionRepo.IdleTTL = cfg.SessionIdleTTL
	app.background = append(app.background, backgroundJob{name: "session-sweeper", run: func(ctx context.Context) error {
		return sessionRepo.SweepEvery(ctx, time.Minute)
	}})
	deps := &sessionsapp.Deps{
		Sessions:     sessionRepo,
		Spots:        directory,
		Availability: availabilitySvc,
		Reservations: api,
		Validator:    booking.NewValidator(now),
		Outbox:       box,
		Encoder:      appoutbox.JSONEventEncoder{},
		Logger:       logger,
		Now:          now,
	}
	if metrics != nil {
		deps.Fetches = metrics
	}
	sessionsapp.Register(commandBus, queryBus, deps)
	spotsapp.Register(queryBus, directory)
	reservationsapp.Register(commandBus, queryBus, api)
	availabilityapp.Register(queryBus, availabilitySvc)

	var observer middleware.Observer
	if metrics != nil {
		observer = metrics
	}
	cmds := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Metrics(observer),
		middleware.Idempotency(idStore, nil),
		middleware.OutboxFlush(box),
	)
	qs := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryMetrics(observer),
	)

	app.handlers.Sessions = ginserver.SessionHandler{Commands: cmds, Queries: qs}
	app.handlers.Spots = ginserver.SpotHandler{Queries: qs}
	app.handlers.Reservations = ginserver.ReservationHandler{Commands: cmds, Queries: qs}
	return app, nil
}
