package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	TypeProcessClothingImage = "image:process_clothing"
	QueueImages              = "images"
)

type ClothingImagePayload struct {
	ClothingID string `json:"clothing_id"`
	Quality    string `json:"quality"`
}

func NewClothingImageTask(clothingID string, quality services.Quality) (*asynq.Task, error) {
	payload, err := json.Marshal(ClothingImagePayload{ClothingID: clothingID, Quality: string(quality)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProcessClothingImage, payload), nil
}

// EnqueueOptions are the options every clothing image task is sent with.
func EnqueueOptions() []asynq.Option {
	return []asynq.Option{asynq.MaxRetry(3), asynq.Queue(QueueImages), asynq.Timeout(2 * time.Minute)}
}

// ClothingImageProcessor downloads a clothing image, removes its
// background, stores the cutout and points the clothing row at it.
type ClothingImageProcessor struct {
	Catalog services.CatalogProvider
	Blob    services.BlobProvider
	Fetcher services.ImageFetcherProvider
	Bucket  string
	Now     func() time.Time
}

func (p *ClothingImageProcessor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *ClothingImageProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ClothingImagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		services.ImageTasks.WithLabelValues("invalid").Inc()
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := log.With().Str("clothing_id", payload.ClothingID).Logger()

	item, err := p.Catalog.GetClothing(ctx, payload.ClothingID)
	if models.IsNotFound(err) {
		services.ImageTasks.WithLabelValues("missing").Inc()
		logger.Warn().Msg("[Queue] Clothing deleted before image processing")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return p.fail(payload, fmt.Errorf("load clothing: %w", err))
	}
	if item.Image == "" {
		services.ImageTasks.WithLabelValues("invalid").Inc()
		return fmt.Errorf("clothing %s has no image: %w", item.ID, asynq.SkipRetry)
	}

	source, err := p.Fetcher.Fetch(ctx, item.Image)
	if err != nil {
		return p.fail(payload, err)
	}
	processed, err := services.RemoveBackground(source, services.ParseQuality(payload.Quality))
	if err != nil {
		services.ImageTasks.WithLabelValues("invalid").Inc()
		return fmt.Errorf("remove background: %v: %w", err, asynq.SkipRetry)
	}

	key := services.ObjectKey("processed", p.now(), processed.Extension)
	if _, err := p.Blob.Upload(ctx, p.Bucket, key, processed.Bytes, processed.ContentType); err != nil {
		return p.fail(payload, err)
	}
	url := p.Blob.PublicURL(p.Bucket, key)
	if _, err := p.Catalog.UpdateClothing(ctx, item.ID, map[string]any{"image": url}); err != nil {
		return p.fail(payload, fmt.Errorf("update clothing image: %w", err))
	}

	services.ImageTasks.WithLabelValues("success").Inc()
	logger.Info().Str("key", key).Int("bytes", len(processed.Bytes)).Msg("[Queue] Clothing image processed")
	return nil
}

func (p *ClothingImageProcessor) fail(payload ClothingImagePayload, err error) error {
	services.ImageTasks.WithLabelValues("failed").Inc()
	log.Error().Err(err).Str("clothing_id", payload.ClothingID).Msg("[Queue] Clothing image processing failed")
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("task", TypeProcessClothingImage)
		scope.SetExtra("clothing_id", payload.ClothingID)
		sentry.CaptureException(err)
	})
	return err
}
