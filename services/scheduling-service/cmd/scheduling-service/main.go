package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/consumer"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/grpcserver"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/memstore"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/notify"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/schedule"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type backend struct {
	schedule     schedule.Stores
	sources      availability.Sources
	appointments booking.Store
	catalog      catalog.Store
	checks       []runtime.ReadyCheck
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var be backend
	switch cfg.StorageDriver {
	case "memory":
		st := memstore.New()
		queue := notify.NewQueue(cfg.NotifyQueueSize, nil, logger)
		st.SetEventSink(queue.Enqueue)
		go queue.Run(ctx)

		be = backend{
			schedule:     schedule.Stores{Weekly: st, Exceptions: st, Blocks: st},
			sources:      availability.Sources{Weekly: st, Exceptions: st, Blocks: st, Appointments: st},
			appointments: st,
			catalog:      st,
			checks:       []runtime.ReadyCheck{{Name: "memory", Check: st.Ready}},
		}
		logger.Info("storage driver: memory")

	default:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		if cfg.MigrateOnStart {
			if err := storage.Migrate(ctx, pool, migrations.FS); err != nil {
				logger.Error("migration failed", "err", err)
				panic(err)
			}
			logger.Info("migrations applied")
		}

		outboxRepo := outbox.NewRepository()
		scheduleRepo := storage.NewScheduleRepository(pool)
		apptRepo := storage.NewAppointmentRepository(pool, outboxRepo, cfg.Location)

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:     cfg.KafkaBrokers,
			PollEvery:   cfg.OutboxPollEvery,
			BatchSize:   cfg.OutboxBatchSize,
			MaxAttempts: cfg.OutboxMaxAttempts,
		})
		go publisher.Run(ctx)

		be = backend{
			schedule:     schedule.Stores{Weekly: scheduleRepo, Exceptions: scheduleRepo, Blocks: scheduleRepo},
			sources:      availability.Sources{Weekly: scheduleRepo, Exceptions: scheduleRepo, Blocks: scheduleRepo, Appointments: apptRepo},
			appointments: apptRepo,
			catalog:      storage.NewCatalogRepository(pool),
			checks:       []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}},
		}
		if cfg.ConsumeEvents && len(cfg.KafkaBrokers) > 0 {
			events := consumer.New(logger, storage.NewInboxRepository(pool), consumer.Config{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.ConsumerGroup,
			}, notify.LogHandler(logger))
			go events.Run(ctx)
			logger.Info("appointment event consumer started", "group", cfg.ConsumerGroup)
		}
		if len(cfg.KafkaBrokers) > 0 {
			be.checks = append(be.checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		}
		logger.Info("storage driver: postgres")
	}

	var limiter httpx.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		limiter = httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMin, time.Minute, cfg.RateLimitPrefix)
		be.checks = append(be.checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
		logger.Info("rate limiting enabled (redis)", "per_minute", cfg.RateLimitPerMin, "redis_addr", cfg.RedisAddr)
	} else {
		limiter = httpx.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
		logger.Info("rate limiting enabled (in-memory)", "per_minute", cfg.RateLimitPerMin)
	}

	tracer := otelx.Tracer(cfg.Service)
	calc := availability.NewCalculator(be.sources, cfg.Location, tracer)
	lookup := catalog.NewLookup(be.catalog, catalog.DefaultProfiles())
	manager := booking.NewManager(be.appointments, calc, lookup, cfg.Location,
		booking.WithLogger(logger),
		booking.WithTracer(tracer),
	)
	api := handlers.New(handlers.Deps{
		Schedule: schedule.NewService(be.schedule, cfg.Location, logger),
		Calc:     calc,
		Booking:  manager,
		Catalog:  lookup,
		Location: cfg.Location,
		Logger:   logger,
	})

	mux := runtime.NewBaseMuxWithReady(be.checks...)
	api.Register(mux, httpx.WithRateLimit(limiter, httpx.ClientKey, logger, cfg.RateLimitFailOpen))

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id", "X-Role"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(int64(cfg.BodyLimitBytes)),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	handler = otelhttp.NewHandler(handler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
	} else {
		health := grpcserver.New(logger, cfg.Service, cfg.HealthEvery, be.checks...)
		go func() {
			if err := health.Serve(ctx, lis); err != nil {
				logger.Error("grpc server error", "err", err)
			}
		}()
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
