package main

import (
	"context"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/controllers"
	"wardrobeapi/dbhelper"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	config.SetupLogger(cfg)

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      string(cfg.Environment),
		Release:          cfg.Release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Flush(2 * time.Second)

	db, err := dbhelper.SetupDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	catalog := services.NewResilientCatalog(services.NewGormCatalog(db), services.BreakerSettings{
		Name:         "catalog",
		Timeout:      cfg.StoreTimeout,
		MaxRequests:  cfg.BreakerMaxRequests,
		Interval:     cfg.BreakerInterval,
		OpenTimeout:  cfg.BreakerOpenTimeout,
		MinRequests:  cfg.BreakerMinRequests,
		FailureRatio: cfg.BreakerFailureRatio,
	})

	deps := controllers.Dependencies{Config: cfg, Catalog: catalog}

	if cfg.StorageEndpoint != "" {
		blob, err := services.NewS3Storage(context.Background(), cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		deps.Blob = blob
	} else {
		log.Warn().Msg("STORAGE_ENDPOINT is not set, uploads are disabled")
	}

	if cfg.CacheEnabled {
		cache, err := services.NewResponseCache()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize response cache")
		}
		deps.Cache = cache
	}

	if cfg.AsyncBrokerAddress != "" {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.AsyncBrokerAddress}
		client := asynq.NewClient(redisOpt)
		defer client.Close()
		inspector := asynq.NewInspector(redisOpt)
		defer inspector.Close()
		deps.Queue = client
		deps.Inspector = inspector
	}

	e := controllers.SetupServer(deps)
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	log.Info().Str("addr", cfg.HTTPAddr()).Str("environment", string(cfg.Environment)).Msg("Starting wardrobe api")
	if err := e.Start(cfg.HTTPAddr()); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
