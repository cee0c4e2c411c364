package main

import (
	"context"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/dbhelper"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	config.SetupLogger(cfg)
	if cfg.AsyncBrokerAddress == "" {
		log.Fatal().Msg("ASYNC_BROKER_ADDRESS is required for the worker")
	}
	if cfg.StorageEndpoint == "" {
		log.Fatal().Msg("STORAGE_ENDPOINT is required for the worker")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: string(cfg.Environment),
		Release:     cfg.Release,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Flush(2 * time.Second)

	db, err := dbhelper.SetupDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[Queue] Failed to connect to the database")
	}
	blob, err := services.NewS3Storage(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[Queue] Failed to initialize object storage")
	}

	processor := &tasks.ClothingImageProcessor{
		Catalog: services.NewResilientCatalog(services.NewGormCatalog(db), services.BreakerSettings{
			Name:         "worker_catalog",
			Timeout:      cfg.StoreTimeout,
			MaxRequests:  cfg.BreakerMaxRequests,
			Interval:     cfg.BreakerInterval,
			OpenTimeout:  cfg.BreakerOpenTimeout,
			MinRequests:  cfg.BreakerMinRequests,
			FailureRatio: cfg.BreakerFailureRatio,
		}),
		Blob:    blob,
		Fetcher: services.NewImageFetcher(30*time.Second, cfg.MaxUploadBytes),
		Bucket:  cfg.StorageBucket,
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.AsyncBrokerAddress},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				tasks.QueueImages: 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeProcessClothingImage, processor.ProcessTask)

	log.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("Starting image worker")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("Worker stopped")
	}
}
