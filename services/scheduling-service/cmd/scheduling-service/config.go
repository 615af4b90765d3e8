package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/config"
)

type appConfig struct {
	Service           string
	Port              string
	GRPCPort          string
	StorageDriver     string
	DatabaseURL       string
	DBMaxConns        int32
	DBMinConns        int32
	MigrateOnStart    bool
	Location          *time.Location
	KafkaBrokers      []string
	OutboxPollEvery   time.Duration
	OutboxBatchSize   int
	OutboxMaxAttempts int
	NotifyQueueSize   int
	ConsumeEvents     bool
	ConsumerGroup     string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RateLimitPerMin   int
	RateLimitPrefix   string
	RateLimitFailOpen bool
	CORSOrigins       []string
	RequestTimeout    time.Duration
	BodyLimitBytes    int
	HealthEvery       time.Duration
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	var err error

	cfg.Service = config.String("SERVICE_NAME", "scheduling-service")
	if cfg.Port, err = config.Port("PORT", "8080"); err != nil {
		return cfg, err
	}
	if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return cfg, err
	}

	cfg.StorageDriver = strings.ToLower(config.String("STORAGE_DRIVER", "postgres"))
	switch cfg.StorageDriver {
	case "postgres":
		if cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return cfg, err
		}
	case "memory":
	default:
		return cfg, fmt.Errorf("STORAGE_DRIVER must be postgres or memory (got %q)", cfg.StorageDriver)
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		return cfg, err
	}
	minConns, err := config.Int("DB_MIN_CONNS", 1)
	if err != nil {
		return cfg, err
	}
	if maxConns < 1 || maxConns > math.MaxInt32 || minConns < 0 || minConns > maxConns {
		return cfg, fmt.Errorf("DB_MIN_CONNS (%d) and DB_MAX_CONNS (%d) must satisfy 0 <= min <= max, max >= 1", minConns, maxConns)
	}
	cfg.DBMaxConns, cfg.DBMinConns = int32(maxConns), int32(minConns)
	cfg.MigrateOnStart = config.Bool("MIGRATE_ON_START", false)

	if cfg.Location, err = config.Location("BUSINESS_TIMEZONE", "UTC"); err != nil {
		return cfg, err
	}

	cfg.KafkaBrokers = config.List("KAFKA_BROKERS")
	if cfg.OutboxPollEvery, err = config.Duration("OUTBOX_POLL_EVERY", 2*time.Second); err != nil {
		return cfg, err
	}
	if cfg.OutboxBatchSize, err = config.Int("OUTBOX_BATCH_SIZE", 50); err != nil {
		return cfg, err
	}
	if cfg.OutboxMaxAttempts, err = config.Int("OUTBOX_MAX_ATTEMPTS", 10); err != nil {
		return cfg, err
	}
	if cfg.NotifyQueueSize, err = config.Int("NOTIFY_QUEUE_SIZE", 256); err != nil {
		return cfg, err
	}

	cfg.ConsumeEvents = config.Bool("NOTIFY_CONSUMER_ENABLED", false)
	cfg.ConsumerGroup = config.String("NOTIFY_CONSUMER_GROUP", "scheduling-notify")

	cfg.RedisAddr = strings.TrimSpace(config.String("REDIS_ADDR", ""))
	cfg.RedisPassword = config.String("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	if cfg.RateLimitPerMin, err = config.Int("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return cfg, err
	}
	cfg.RateLimitPrefix = config.String("RATE_LIMIT_PREFIX", "rl:scheduling")
	cfg.RateLimitFailOpen = config.Bool("RATE_LIMIT_FAIL_OPEN", true)

	cfg.CORSOrigins = config.List("CORS_ALLOWED_ORIGINS")
	if cfg.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.BodyLimitBytes, err = config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20); err != nil {
		return cfg, err
	}
	if cfg.HealthEvery, err = config.Duration("HEALTH_CHECK_EVERY", 10*time.Second); err != nil {
		return cfg, err
	}
	return cfg, nil
}
